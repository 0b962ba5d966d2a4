// Package deps declares the dependencies of the build and resolves them
// against the environment into concrete filesystem locations.
package deps

import "github.com/goplus/usdbuild/internal/env"

// Dependency names.
const (
	Boost      = "boost"
	TBB        = "tbb"
	OpenEXR    = "openexr"
	Imath      = "imath"
	OIIO       = "oiio"
	OCIO       = "ocio"
	MaterialX  = "materialx"
	OpenSubdiv = "opensubdiv"
	OpenVDB    = "openvdb"
	Alembic    = "alembic"
	Ptex       = "ptex"
	PySide6    = "pyside6"
	Qt         = "qt"
	LibJPEG    = "libjpeg"
	Python     = "python"
	Jinja2     = "jinja2"
	PyOpenGL   = "pyopengl"
	Arnold     = "arnold"
	GCC        = "gcc"
	CMake      = "cmake"
	Ninja      = "ninja"
)

// Spec describes one dependency. Specs are static and never mutated.
type Spec struct {
	Name   string
	EnvKey string

	// ConfigDirs lists candidate CMake package config directories relative
	// to the root, highest priority first.
	ConfigDirs []string

	// Prefix adds the root to the combined CMAKE_PREFIX_PATH.
	Prefix bool

	// RootVar and ConfigVar name the CMake variables that receive the root
	// and the config directory. They are only emitted when resolved.
	RootVar   string
	ConfigVar string
}

// Manifest is the dependency list of the USD build, in CMAKE_PREFIX_PATH
// order.
var Manifest = []Spec{
	{Name: Boost, EnvKey: "REZ_BOOST_ROOT", Prefix: true, RootVar: "Boost_ROOT"},
	{
		Name: TBB, EnvKey: "REZ_TBB_ROOT", Prefix: true,
		ConfigDirs: []string{"lib/cmake/tbb", "lib64/cmake/tbb", "lib/cmake/TBB"},
		RootVar:    "TBB_ROOT_DIR", ConfigVar: "Tbb_DIR",
	},
	{Name: OpenEXR, EnvKey: "REZ_OPENEXR_ROOT", Prefix: true},
	{
		Name: Imath, EnvKey: "REZ_IMATH_ROOT", Prefix: true,
		ConfigDirs: []string{"lib/cmake/Imath", "lib64/cmake/Imath"},
		ConfigVar:  "Imath_DIR",
	},
	{Name: OIIO, EnvKey: "REZ_OIIO_ROOT", Prefix: true, RootVar: "OIIO_LOCATION"},
	{Name: OCIO, EnvKey: "REZ_OCIO_ROOT", Prefix: true, RootVar: "OCIO_LOCATION"},
	{
		Name: MaterialX, EnvKey: "REZ_MATERIALX_ROOT", Prefix: true,
		ConfigDirs: []string{"lib/cmake/MaterialX", "lib64/cmake/MaterialX"},
		ConfigVar:  "MaterialX_DIR",
	},
	{Name: OpenSubdiv, EnvKey: "REZ_OPENSUBDIV_ROOT", Prefix: true, RootVar: "OPENSUBDIV_ROOT_DIR"},
	{Name: OpenVDB, EnvKey: "REZ_OPENVDB_ROOT", Prefix: true, RootVar: "OPENVDB_LOCATION"},
	{Name: Alembic, EnvKey: "REZ_ALEMBIC_ROOT", Prefix: true, RootVar: "ALEMBIC_DIR"},
	{Name: Ptex, EnvKey: "REZ_PTEX_ROOT", Prefix: true, RootVar: "PTEX_LOCATION"},
	{Name: PySide6, EnvKey: "REZ_PYSIDE6_ROOT", Prefix: true},
	{
		Name: Qt, EnvKey: "REZ_QT_ROOT", Prefix: true,
		ConfigDirs: []string{"lib/cmake/Qt6", "lib64/cmake/Qt6"},
		ConfigVar:  "Qt6_DIR",
	},
	{Name: LibJPEG, EnvKey: "REZ_LIBJPEG_ROOT", Prefix: true, RootVar: "JPEG_ROOT"},
	{Name: Python, EnvKey: "REZ_PYTHON_ROOT", Prefix: true},
	{Name: Jinja2, EnvKey: "REZ_JINJA2_ROOT"},
	{Name: PyOpenGL, EnvKey: "REZ_PYOPENGL_ROOT"},
	{Name: Arnold, EnvKey: "REZ_ARNOLD_ROOT"},
	{Name: GCC, EnvKey: "REZ_GCC_ROOT"},
	{Name: CMake, EnvKey: "REZ_CMAKE_ROOT"},
	{Name: Ninja, EnvKey: "REZ_NINJA_ROOT"},
}

// EnvKeys returns the environment variable of every spec, in order.
func EnvKeys(specs []Spec) []string {
	keys := make([]string, len(specs))
	for i, s := range specs {
		keys[i] = s.EnvKey
	}
	return keys
}

// Resolved is a dependency resolved for one build. An empty Root means the
// dependency is not available; an empty ConfigDir means none of the
// candidate config directories exists under Root.
type Resolved struct {
	Name      string
	Root      string
	ConfigDir string
}

// Available reports whether the dependency root was provided.
func (r Resolved) Available() bool {
	return r.Root != ""
}

// Entry pairs a spec with its resolution.
type Entry struct {
	Spec     Spec
	Resolved Resolved
}

// Table is the resolved dependency table of one build. It keeps the order
// of the specs it was resolved from and is read-only once built.
type Table struct {
	entries []Entry
	index   map[string]int
}

// Resolve resolves every spec against roots, a map from environment key to
// value as returned by env.Roots.ResolveAll.
func Resolve(specs []Spec, roots map[string]string) *Table {
	t := &Table{
		entries: make([]Entry, 0, len(specs)),
		index:   make(map[string]int, len(specs)),
	}
	for _, s := range specs {
		root := roots[s.EnvKey]
		t.index[s.Name] = len(t.entries)
		t.entries = append(t.entries, Entry{
			Spec: s,
			Resolved: Resolved{
				Name:      s.Name,
				Root:      root,
				ConfigDir: FindConfigDir(root, s.ConfigDirs),
			},
		})
	}
	return t
}

// ResolveEnv reads the environment keys of specs from r and resolves them.
func ResolveEnv(specs []Spec, r *env.Roots) *Table {
	return Resolve(specs, r.ResolveAll(EnvKeys(specs)))
}

// Lookup returns the resolution of name.
func (t *Table) Lookup(name string) (Resolved, bool) {
	i, ok := t.index[name]
	if !ok {
		return Resolved{Name: name}, false
	}
	return t.entries[i].Resolved, true
}

// Root returns the root of name, or "" when unknown or unset.
func (t *Table) Root(name string) string {
	r, _ := t.Lookup(name)
	return r.Root
}

// Entries returns the table in spec order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// PrefixRoots returns the resolved roots that belong on CMAKE_PREFIX_PATH.
func (t *Table) PrefixRoots() []string {
	var roots []string
	for _, e := range t.entries {
		if e.Spec.Prefix && e.Resolved.Available() {
			roots = append(roots, e.Resolved.Root)
		}
	}
	return roots
}
