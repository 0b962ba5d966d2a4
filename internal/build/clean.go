package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// preserved reports whether a build directory entry survives cleaning.
// The package manager keeps its resolved context (*.rxt) and variant
// description there.
func preserved(name string) bool {
	return strings.HasSuffix(name, ".rxt") || name == "variant.json"
}

// cleanBuildDir empties dir except for preserved entries and makes sure it
// exists.
func cleanBuildDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for _, e := range entries {
		if preserved(e.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return os.MkdirAll(dir, 0o755)
}

// resetDir removes dir entirely and recreates it empty.
func resetDir(dir string) error {
	clean := filepath.Clean(dir)
	if clean == string(filepath.Separator) || clean == "." {
		return fmt.Errorf("refusing to remove %q", dir)
	}
	if err := os.RemoveAll(clean); err != nil {
		return err
	}
	return os.MkdirAll(clean, 0o755)
}
