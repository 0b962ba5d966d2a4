// Package config turns resolved dependencies and build options into the
// CMake configuration of the USD build.
package config

import (
	"fmt"
	"strings"

	"github.com/goplus/usdbuild/internal/deps"
	"github.com/goplus/usdbuild/pkgs/buildsys/cmake"
)

// Defaults for the generator and build type.
const (
	DefaultGenerator = "Ninja"
	DefaultBuildType = "Release"
)

// Error reports a structurally required value that is missing.
type Error struct {
	Field string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s is required", e.Field)
}

// Target selects the platform and interpreter the build is for.
type Target struct {
	OS            string
	Arch          string
	PythonVersion string
}

func (t Target) String() string {
	return t.OS + "-" + t.Arch + "-python" + t.PythonVersion
}

// Builder assembles the configure arguments of the primary build.
type Builder struct {
	SourceDir     string
	BuildDir      string
	InstallPrefix string
	Generator     string
	BuildType     string
	Options       Options
	Target        Target
	Python        deps.PythonInstall
}

// CMake returns a CMake driver configured for table. Dependency overrides
// are only defined for what actually resolved; leaving a variable out lets
// CMake discover the package through CMAKE_PREFIX_PATH or disable it.
func (b *Builder) CMake(table *deps.Table) (*cmake.CMake, error) {
	if b.SourceDir == "" {
		return nil, &Error{Field: "source directory"}
	}

	c := cmake.New(b.SourceDir, b.BuildDir, b.InstallPrefix).
		Generator(orDefault(b.Generator, DefaultGenerator)).
		BuildType(orDefault(b.BuildType, DefaultBuildType)).
		DefineBool("BUILD_SHARED_LIBS", true)

	if roots := table.PrefixRoots(); len(roots) > 0 {
		c.Define("CMAKE_PREFIX_PATH", strings.Join(roots, ";"))
	}

	for _, f := range b.Options.Features() {
		c.DefineBool(f.Var, f.Enabled)
	}

	c.DefineFilePath("Python3_EXECUTABLE", b.Python.Executable)
	if b.Python.Library != "" {
		c.DefineFilePath("Python3_LIBRARY", b.Python.Library)
	}
	if b.Python.IncludeDir != "" {
		c.DefinePath("Python3_INCLUDE_DIR", b.Python.IncludeDir)
	}

	for _, e := range table.Entries() {
		if e.Spec.RootVar != "" && e.Resolved.Available() {
			c.DefinePath(e.Spec.RootVar, e.Resolved.Root)
		}
		if e.Spec.ConfigVar != "" && e.Resolved.ConfigDir != "" {
			c.DefinePath(e.Spec.ConfigVar, e.Resolved.ConfigDir)
		}
	}
	return c, nil
}

// Args returns the full configure argument vector for table.
func (b *Builder) Args(table *deps.Table) ([]string, error) {
	c, err := b.CMake(table)
	if err != nil {
		return nil, err
	}
	return c.ConfigureArgs(), nil
}

// Unsatisfied returns the enabled features whose dependency did not
// resolve. They are still passed to CMake, which may find the package on
// its own or fail the configure step.
func (b *Builder) Unsatisfied(table *deps.Table) []Feature {
	var out []Feature
	for _, f := range b.Options.Features() {
		if f.Enabled && f.Requires != "" && table.Root(f.Requires) == "" {
			out = append(out, f)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
