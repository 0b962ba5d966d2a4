package deps

import (
	"os"
	"os/exec"
	"path/filepath"
)

// FindConfigDir returns the first candidate, joined to root, that exists as
// a directory. It returns "" when root is empty or nothing matches; a
// missing filesystem entry is an expected outcome, not an error.
func FindConfigDir(root string, candidates []string) string {
	return find(root, candidates, true)
}

// FindFile is like FindConfigDir but matches non-directory entries.
func FindFile(root string, candidates []string) string {
	return find(root, candidates, false)
}

func find(root string, candidates []string, wantDir bool) string {
	if root == "" {
		return ""
	}
	for _, c := range candidates {
		p := filepath.Join(root, c)
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		if fi.IsDir() == wantDir {
			return p
		}
	}
	return ""
}

// PythonInstall locates the interpreter pieces CMake's FindPython3 needs.
type PythonInstall struct {
	Executable string
	Library    string
	IncludeDir string

	// Fallback is set when Executable was not found under the resolved
	// root and came from PATH instead.
	Fallback bool
}

// LocatePython probes root for the interpreter of the given "major.minor"
// version. Library and IncludeDir stay empty when root does not provide
// them, so that CMake discovers them on its own.
func LocatePython(root, version string) PythonInstall {
	py := PythonInstall{
		Executable: FindFile(root, []string{
			filepath.Join("bin", "python"+version),
			filepath.Join("bin", "python3"),
		}),
		Library: FindFile(root, []string{
			filepath.Join("lib", "libpython"+version+".so"),
			filepath.Join("lib", "libpython"+version+"m.so"),
		}),
		IncludeDir: FindConfigDir(root, []string{
			filepath.Join("include", "python"+version),
			filepath.Join("include", "python"+version+"m"),
		}),
	}
	if py.Executable == "" {
		py.Fallback = true
		py.Executable = "python3"
		if p, err := exec.LookPath("python3"); err == nil {
			py.Executable = p
		}
	}
	return py
}
