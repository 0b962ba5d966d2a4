// Package env reads the build environment handed over by the package
// manager: dependency roots and the invocation-scoped build paths.
package env

import "os"

// Invocation variables set by the package manager for every build.
const (
	ProjectName    = "REZ_BUILD_PROJECT_NAME"
	ProjectVersion = "REZ_BUILD_PROJECT_VERSION"
	SourcePath     = "REZ_BUILD_SOURCE_PATH"
	BuildPath      = "REZ_BUILD_PATH"
	InstallPath    = "REZ_BUILD_INSTALL_PATH"
	VariantSubpath = "REZ_BUILD_VARIANT_SUBPATH"
	PythonMajor    = "REZ_PYTHON_MAJOR_VERSION"
	PythonMinor    = "REZ_PYTHON_MINOR_VERSION"
)

const (
	defaultProjectName = "usd"
	defaultPythonMajor = "3"
	defaultPythonMinor = "11"
)

// Roots looks up named variables in an environment. An unset variable
// reads as the empty string; absence is a valid answer, not an error.
type Roots struct {
	getenv func(string) string
}

// New returns Roots backed by getenv. A nil getenv reads the process
// environment.
func New(getenv func(string) string) *Roots {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Roots{getenv: getenv}
}

// FromMap returns Roots that only see the variables in m.
func FromMap(m map[string]string) *Roots {
	return New(func(key string) string { return m[key] })
}

// Get returns the value of name, or "" when unset.
func (r *Roots) Get(name string) string {
	return r.getenv(name)
}

// GetDefault returns the value of name, or def when unset or empty.
func (r *Roots) GetDefault(name, def string) string {
	if v := r.getenv(name); v != "" {
		return v
	}
	return def
}

// ResolveAll reads every variable in names. Unset variables map to "".
func (r *Roots) ResolveAll(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = r.getenv(name)
	}
	return out
}

// Invocation holds the invocation-scoped variables of one build.
type Invocation struct {
	Name           string
	Version        string
	SourcePath     string
	BuildPath      string
	InstallPath    string
	VariantSubpath string
	PythonMajor    string
	PythonMinor    string
}

// PythonVersion returns the "major.minor" interpreter selector.
func (i Invocation) PythonVersion() string {
	return i.PythonMajor + "." + i.PythonMinor
}

// Invocation reads the invocation variables, applying the package
// manager's defaults for name and interpreter version. Required values are
// not validated here.
func (r *Roots) Invocation() Invocation {
	return Invocation{
		Name:           r.GetDefault(ProjectName, defaultProjectName),
		Version:        r.Get(ProjectVersion),
		SourcePath:     r.Get(SourcePath),
		BuildPath:      r.Get(BuildPath),
		InstallPath:    r.Get(InstallPath),
		VariantSubpath: r.Get(VariantSubpath),
		PythonMajor:    r.GetDefault(PythonMajor, defaultPythonMajor),
		PythonMinor:    r.GetDefault(PythonMinor, defaultPythonMinor),
	}
}
