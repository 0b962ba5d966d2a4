// Package buildenv derives the environment overlay that build tools run
// with from the resolved dependencies.
package buildenv

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/usdbuild/internal/deps"
)

// Env is an immutable overlay of environment variables. It is layered on
// top of an inherited environment for every child process; the current
// process environment is never modified.
type Env struct {
	vars map[string]string
}

// Get returns the overlay value of key.
func (e Env) Get(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Keys returns the overlay keys, sorted.
func (e Env) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Environ returns base with every overlay key replaced or added.
func (e Env) Environ(base []string) []string {
	return mergeEnv(base, e.vars)
}

// Compilers returns the C and C++ compilers of a GCC installation. It
// prefers <root>/bin and falls back to the platform_linux/bin layout.
func Compilers(gccRoot string) (binDir, cc, cxx string) {
	if gccRoot == "" {
		return "", "", ""
	}
	binDir = filepath.Join(gccRoot, "bin")
	if fi, err := os.Stat(binDir); err != nil || !fi.IsDir() {
		binDir = filepath.Join(gccRoot, "platform_linux", "bin")
	}
	return binDir, filepath.Join(binDir, "gcc"), filepath.Join(binDir, "g++")
}

// FromDeps builds the overlay for table. pyVersion is the "major.minor"
// interpreter version used to locate site-packages; inherited reads the
// values that PATH-style variables are prepended to.
func FromDeps(table *deps.Table, pyVersion string, inherited func(string) string) Env {
	vars := map[string]string{}
	root := table.Root

	gccBin, cc, cxx := Compilers(root(deps.GCC))
	if cc != "" {
		vars["CC"] = cc
		vars["CXX"] = cxx
	}

	var path []string
	if r := root(deps.CMake); r != "" {
		path = append(path, filepath.Join(r, "bin"))
	}
	if gccBin != "" {
		path = append(path, gccBin)
	}
	for _, name := range []string{deps.Ninja, deps.Python, deps.PySide6} {
		if r := root(name); r != "" {
			path = append(path, filepath.Join(r, "bin"))
		}
	}
	if len(path) > 0 {
		vars["PATH"] = prependList(path, inherited("PATH"))
	}

	sitePackages := filepath.Join("lib", "python"+pyVersion, "site-packages")
	var pyPath []string
	if r := root(deps.PySide6); r != "" {
		pyPath = append(pyPath, filepath.Join(r, sitePackages))
	}
	if r := root(deps.PyOpenGL); r != "" {
		pyPath = append(pyPath, r)
	}
	if r := root(deps.Jinja2); r != "" {
		pyPath = append(pyPath, filepath.Join(r, sitePackages))
	}
	if len(pyPath) > 0 {
		// Replaces the inherited value: the interpreter must only see the
		// resolved packages.
		vars["PYTHONPATH"] = strings.Join(pyPath, string(os.PathListSeparator))
	}

	var ldPath []string
	if r := root(deps.Qt); r != "" {
		ldPath = append(ldPath, filepath.Join(r, "lib"))
	}
	if r := root(deps.TBB); r != "" {
		libDir := deps.FindConfigDir(r, []string{"lib64"})
		if libDir == "" {
			libDir = filepath.Join(r, "lib")
		}
		ldPath = append(ldPath, libDir)
		vars["TBB_ROOT"] = r
	}
	if r := root(deps.OpenSubdiv); r != "" {
		ldPath = append(ldPath, filepath.Join(r, "lib"))
	}
	if len(ldPath) > 0 {
		vars["LD_LIBRARY_PATH"] = prependList(ldPath, inherited("LD_LIBRARY_PATH"))
	}

	return Env{vars: vars}
}

func prependList(values []string, current string) string {
	if current != "" {
		values = append(values, current)
	}
	return strings.Join(values, string(os.PathListSeparator))
}

// mergeEnv returns base with override applied, sorted by key.
func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(override))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
