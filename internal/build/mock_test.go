package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goplus/usdbuild/internal/env"
	"github.com/goplus/usdbuild/internal/logging"
	"github.com/goplus/usdbuild/internal/profile"
	"github.com/goplus/usdbuild/internal/runner"
)

// fakeRunner records commands instead of running them.
type fakeRunner struct {
	cmds []runner.Cmd

	// run, when set, decides the outcome of each command.
	run func(ctx context.Context, cmd runner.Cmd) error
}

func (r *fakeRunner) Run(ctx context.Context, cmd runner.Cmd) error {
	r.cmds = append(r.cmds, cmd)
	if r.run != nil {
		return r.run(ctx, cmd)
	}
	return nil
}

// kinds returns "configure", "compile" or "install" for every recorded
// command, prefixed with "plugin " for commands of the plugin build.
func (r *fakeRunner) kinds() []string {
	var out []string
	for _, c := range r.cmds {
		out = append(out, kind(c))
	}
	return out
}

func kind(c runner.Cmd) string {
	k := "unknown"
	if len(c.Args) > 0 {
		switch c.Args[0] {
		case "-S":
			k = "configure"
		case "--build":
			k = "compile"
		case "--install":
			k = "install"
		}
	}
	if filepath.Base(c.Dir) == pluginName {
		return "plugin " + k
	}
	return k
}

// fixture is a package source tree plus the directories a build uses.
type fixture struct {
	root        string
	sourcePath  string
	sourceDir   string
	buildPath   string
	installPath string
	installBase string
	vars        map[string]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		root:        root,
		sourcePath:  filepath.Join(root, "src"),
		buildPath:   filepath.Join(root, "build"),
		installPath: filepath.Join(root, "install"),
		installBase: filepath.Join(root, "packages"),
	}
	f.sourceDir = filepath.Join(f.sourcePath, "source", "OpenUSD-25.11")
	mkdir(t, f.sourceDir)
	writeFile(t, filepath.Join(f.sourcePath, "package.py"), "name = \"usd\"\nversion = \"25.11\"\n")
	f.vars = map[string]string{
		env.ProjectName:    "usd",
		env.ProjectVersion: "25.11",
		env.SourcePath:     f.sourcePath,
		env.BuildPath:      f.buildPath,
		env.InstallPath:    f.installPath,
		env.VariantSubpath: "python-3.11",
	}
	return f
}

// installRoot is where a requested install lands.
func (f *fixture) installRoot() string {
	return filepath.Join(f.installBase, "usd", f.vars[env.ProjectVersion], "python-3.11")
}

// setVersion switches the package version and provides its source tree.
func (f *fixture) setVersion(t *testing.T, version string) {
	t.Helper()
	f.vars[env.ProjectVersion] = version
	f.sourceDir = filepath.Join(f.sourcePath, "source", "OpenUSD-"+version)
	mkdir(t, f.sourceDir)
}

// withPlugin adds the plugin source tree and an Arnold SDK root.
func (f *fixture) withPlugin(t *testing.T) string {
	t.Helper()
	mkdir(t, filepath.Join(f.sourcePath, "source", pluginName))
	arnold := filepath.Join(f.root, "arnold")
	mkdir(t, filepath.Join(arnold, "bin"))
	f.vars["REZ_ARNOLD_ROOT"] = arnold
	return arnold
}

func (f *fixture) options(r runner.Runner, targets ...string) Options {
	prof := profile.Default()
	prof.InstallBase = f.installBase
	return Options{
		Env:      env.FromMap(f.vars),
		Targets:  targets,
		Profile:  prof,
		Runner:   r,
		Logger:   logging.Discard(),
		GOOS:     "linux",
		GOARCH:   "amd64",
		Parallel: 4,
		Environ:  []string{"PATH=/usr/bin:/bin", "HOME=/home/builder"},
		RunID:    "test-run",
	}
}

func mkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	mkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
