package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindConfigDir(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "lib64/cmake/tbb", "lib/cmake/TBB")
	touch(t, filepath.Join(root, "lib", "cmake", "tbb"))

	tests := []struct {
		name       string
		root       string
		candidates []string
		want       string
	}{
		{"empty root", "", []string{"lib/cmake/tbb"}, ""},
		{"no candidates", root, nil, ""},
		{"nothing exists", root, []string{"lib/cmake/Imath"}, ""},
		{"file is not a dir", root, []string{"lib/cmake/tbb"}, ""},
		{"first existing wins", root, []string{"lib/cmake/tbb", "lib64/cmake/tbb", "lib/cmake/TBB"}, filepath.Join(root, "lib64/cmake/tbb")},
		{"priority order", root, []string{"lib/cmake/TBB", "lib64/cmake/tbb"}, filepath.Join(root, "lib/cmake/TBB")},
		{"missing root", filepath.Join(root, "nope"), []string{"lib"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindConfigDir(tt.root, tt.candidates)
			if got != tt.want {
				t.Fatalf("FindConfigDir() = %q, want %q", got, tt.want)
			}
			if got != "" {
				fi, err := os.Stat(got)
				if err != nil || !fi.IsDir() {
					t.Fatalf("FindConfigDir() returned non-directory %q", got)
				}
			}
		})
	}
}

func TestResolveScenario(t *testing.T) {
	x := t.TempDir()
	mkdirs(t, x, "lib/cmake/A")

	specs := []Spec{
		{Name: "A", EnvKey: "DEP_A_ROOT", ConfigDirs: []string{"lib/cmake/A"}, Prefix: true, ConfigVar: "A_DIR"},
		{Name: "B", EnvKey: "DEP_B_ROOT", ConfigDirs: []string{"lib/cmake/B"}, Prefix: true, ConfigVar: "B_DIR"},
	}
	table := Resolve(specs, map[string]string{"DEP_A_ROOT": x, "DEP_B_ROOT": ""})

	a, ok := table.Lookup("A")
	if !ok {
		t.Fatal("A not in table")
	}
	if a.Root != x || a.ConfigDir != filepath.Join(x, "lib/cmake/A") {
		t.Errorf("A resolved to %+v", a)
	}
	b, ok := table.Lookup("B")
	if !ok {
		t.Fatal("B not in table")
	}
	if b.Available() || b.ConfigDir != "" {
		t.Errorf("B resolved to %+v, want absent", b)
	}
	if got := table.PrefixRoots(); len(got) != 1 || got[0] != x {
		t.Errorf("PrefixRoots() = %v, want [%s]", got, x)
	}
}

func TestTableLookupUnknown(t *testing.T) {
	table := Resolve(Manifest, nil)
	if _, ok := table.Lookup("draco"); ok {
		t.Error("Lookup(draco) reported a manifest entry")
	}
	if table.Root(TBB) != "" {
		t.Error("Root(tbb) should be empty without environment")
	}
	if len(table.Entries()) != len(Manifest) {
		t.Errorf("Entries() = %d, want %d", len(table.Entries()), len(Manifest))
	}
}

func TestPrefixRootsOrder(t *testing.T) {
	roots := map[string]string{
		"REZ_PYTHON_ROOT": "/py",
		"REZ_BOOST_ROOT":  "/boost",
		"REZ_QT_ROOT":     "/qt",
		"REZ_ARNOLD_ROOT": "/arnold",
		"REZ_GCC_ROOT":    "/gcc",
	}
	got := strings.Join(Resolve(Manifest, roots).PrefixRoots(), ";")
	if want := "/boost;/qt;/py"; got != want {
		t.Errorf("PrefixRoots() = %q, want %q", got, want)
	}
}

func TestManifestUnique(t *testing.T) {
	names := map[string]bool{}
	keys := map[string]bool{}
	for _, s := range Manifest {
		if names[s.Name] {
			t.Errorf("duplicate name %q", s.Name)
		}
		if keys[s.EnvKey] {
			t.Errorf("duplicate env key %q", s.EnvKey)
		}
		names[s.Name] = true
		keys[s.EnvKey] = true
		if len(s.ConfigDirs) > 0 && s.ConfigVar == "" {
			t.Errorf("%s probes config dirs but has no ConfigVar", s.Name)
		}
	}
}

func TestLocatePython(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "bin", "python3"))
	touch(t, filepath.Join(root, "bin", "python3.12"))
	touch(t, filepath.Join(root, "lib", "libpython3.12m.so"))
	mkdirs(t, root, "include/python3.12")

	py := LocatePython(root, "3.12")
	if py.Fallback {
		t.Error("Fallback set although the interpreter exists under root")
	}
	if want := filepath.Join(root, "bin", "python3.12"); py.Executable != want {
		t.Errorf("Executable = %q, want %q", py.Executable, want)
	}
	if want := filepath.Join(root, "lib", "libpython3.12m.so"); py.Library != want {
		t.Errorf("Library = %q, want %q", py.Library, want)
	}
	if want := filepath.Join(root, "include", "python3.12"); py.IncludeDir != want {
		t.Errorf("IncludeDir = %q, want %q", py.IncludeDir, want)
	}

	py = LocatePython(root, "3.11")
	if want := filepath.Join(root, "bin", "python3"); py.Executable != want {
		t.Errorf("Executable for 3.11 = %q, want %q", py.Executable, want)
	}
	if py.Library != "" || py.IncludeDir != "" {
		t.Errorf("unexpected 3.11 library/include: %+v", py)
	}
}

func TestLocatePythonFallback(t *testing.T) {
	py := LocatePython("", "3.11")
	if !py.Fallback {
		t.Error("Fallback not set for empty root")
	}
	if py.Executable == "" {
		t.Error("Executable empty on fallback")
	}
}
