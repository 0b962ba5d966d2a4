// Package build drives one USD build through its stages: clean, patch,
// configure, compile, install, the optional plugin build and post-install
// bookkeeping.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/goplus/usdbuild/internal/buildenv"
	"github.com/goplus/usdbuild/internal/config"
	"github.com/goplus/usdbuild/internal/deps"
	"github.com/goplus/usdbuild/internal/env"
	"github.com/goplus/usdbuild/internal/logging"
	"github.com/goplus/usdbuild/internal/patch"
	"github.com/goplus/usdbuild/internal/profile"
	"github.com/goplus/usdbuild/internal/runner"
	"github.com/goplus/usdbuild/pkgs/buildsys"
)

// ErrMissingInput is returned when a required invocation value is absent
// or unusable.
var ErrMissingInput = errors.New("missing required input")

// TargetInstall is the invocation target that requests installation.
const TargetInstall = "install"

// State is a step of the build state machine.
type State string

const (
	StateInit        State = "init"
	StateClean       State = "clean"
	StatePatch       State = "patch"
	StateConfigure   State = "configure"
	StateCompile     State = "compile"
	StateInstall     State = "install"
	StateSecondary   State = "secondary"
	StatePostInstall State = "post-install"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Criticality decides what a stage failure does to the run.
type Criticality int

const (
	// Fatal failures abort the run.
	Fatal Criticality = iota
	// Isolated failures are logged and the run goes on.
	Isolated
)

func (c Criticality) String() string {
	if c == Isolated {
		return "isolated"
	}
	return "fatal"
}

// Stage is one external invocation. Run performs it; Cmd is the command
// line it issues, kept for logs and reports.
type Stage struct {
	Name        string
	State       State
	Cmd         runner.Cmd
	Run         func(ctx context.Context) error
	Criticality Criticality
}

// StageResult records how a stage ended. Err is nil on success.
type StageResult struct {
	Stage Stage
	Err   error
}

// InstallTarget tells whether installation was requested and where to.
type InstallTarget struct {
	Requested bool
	Root      string
}

// Result summarizes a run.
type Result struct {
	RunID string
	State State

	// FailedAt is the state a failed run stopped in.
	FailedAt State

	Install  InstallTarget
	Patch    patch.Report
	Stages   []StageResult
	Warnings []string
}

// Failed returns the results of the stages that failed.
func (r *Result) Failed() []StageResult {
	var out []StageResult
	for _, s := range r.Stages {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Options configures a run. Only Env is required.
type Options struct {
	Env     *env.Roots
	Targets []string
	Profile *profile.Profile
	Runner  runner.Runner
	Logger  *slog.Logger

	// Specs defaults to deps.Manifest.
	Specs []deps.Spec

	// GOOS and GOARCH default to the running platform.
	GOOS   string
	GOARCH string

	// Parallel is the compile job count; 0 uses every available CPU.
	Parallel int

	// Environ is the inherited environment of child processes; nil uses
	// the current process environment.
	Environ []string

	// RunID tags every log record; a random UUID when empty.
	RunID string
}

// Orchestrator runs the stages of one build.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
	result *Result
}

// New returns an orchestrator for opts.
func New(opts Options) *Orchestrator {
	if opts.Env == nil {
		opts.Env = env.New(nil)
	}
	if opts.Profile == nil {
		opts.Profile = profile.Default()
	}
	if opts.Runner == nil {
		opts.Runner = &runner.Exec{}
	}
	if opts.Specs == nil {
		opts.Specs = deps.Manifest
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.GOARCH == "" {
		opts.GOARCH = runtime.GOARCH
	}
	if opts.Parallel <= 0 {
		// NumCPU already honours the affinity mask of the process.
		opts.Parallel = runtime.NumCPU()
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Orchestrator{
		opts:   opts,
		logger: logging.Ensure(opts.Logger).With("run", opts.RunID),
	}
}

// plan is what a run derives from its inputs before touching anything.
type plan struct {
	inv       env.Invocation
	sourceDir string
	install   InstallTarget
	table     *deps.Table
	environ   []string
	cmakeBin  string
}

// Run executes the build. A fatal failure returns the partial result with
// State set to StateFailed together with the error.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	o.result = &Result{RunID: o.opts.RunID, State: StateInit}

	p, err := o.prepare()
	if err != nil {
		return o.fail(err)
	}
	o.result.Install = p.install
	o.logger.Info("starting build",
		"name", p.inv.Name,
		"version", p.inv.Version,
		"python", p.inv.PythonVersion(),
		"source", p.sourceDir,
		"build", p.inv.BuildPath,
		"install", p.install.Root,
		"install_requested", p.install.Requested)
	o.logDeps(p.table)

	o.result.State = StateClean
	if err := o.clean(p); err != nil {
		return o.fail(err)
	}

	o.result.State = StatePatch
	if err := o.patch(p); err != nil {
		return o.fail(err)
	}

	if err := o.primary(ctx, p); err != nil {
		return o.fail(err)
	}

	o.result.State = StateSecondary
	o.secondary(ctx, p)
	if err := ctx.Err(); err != nil {
		return o.fail(err)
	}

	if p.install.Requested {
		o.result.State = StatePostInstall
		if err := o.postInstall(p); err != nil {
			return o.fail(err)
		}
	}

	o.result.State = StateDone
	o.logger.Info("build complete",
		"version", p.inv.Version,
		"python", p.inv.PythonVersion(),
		"install", p.install.Root,
		"warnings", len(o.result.Warnings))
	return o.result, nil
}

func (o *Orchestrator) prepare() (*plan, error) {
	inv := o.opts.Env.Invocation()
	for _, req := range []struct{ name, value string }{
		{env.ProjectVersion, inv.Version},
		{env.SourcePath, inv.SourcePath},
		{env.BuildPath, inv.BuildPath},
		{env.InstallPath, inv.InstallPath},
	} {
		if req.value == "" {
			return nil, fmt.Errorf("%w: %s is not set", ErrMissingInput, req.name)
		}
	}

	sourceDir := filepath.Join(inv.SourcePath, "source", "OpenUSD-"+inv.Version)
	if fi, err := os.Stat(sourceDir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: source not found: %s", ErrMissingInput, sourceDir)
	}

	install := InstallTarget{
		Requested: slices.Contains(o.opts.Targets, TargetInstall),
		Root:      inv.InstallPath,
	}
	if install.Requested {
		install.Root = filepath.Join(o.opts.Profile.InstallBase, inv.Name, inv.Version, inv.VariantSubpath)
	}

	table := deps.ResolveEnv(o.opts.Specs, o.opts.Env)
	overlay := buildenv.FromDeps(table, inv.PythonVersion(), lookupEnv(o.opts.Environ))
	return &plan{
		inv:       inv,
		sourceDir: sourceDir,
		install:   install,
		table:     table,
		environ:   overlay.Environ(o.opts.Environ),
		cmakeBin:  cmakeBinary(table),
	}, nil
}

func (o *Orchestrator) logDeps(table *deps.Table) {
	for _, e := range table.Entries() {
		root := e.Resolved.Root
		if root == "" {
			root = "(not set)"
		}
		o.logger.Info("dependency", "name", e.Spec.Name, "key", e.Spec.EnvKey, "root", root)
		if e.Resolved.ConfigDir != "" {
			o.logger.Debug("dependency config", "name", e.Spec.Name, "dir", e.Resolved.ConfigDir)
		}
	}
}

func (o *Orchestrator) clean(p *plan) error {
	o.logger.Info("cleaning build directory", "dir", p.inv.BuildPath)
	if err := cleanBuildDir(p.inv.BuildPath); err != nil {
		return fmt.Errorf("clean build directory: %w", err)
	}
	if p.install.Requested {
		o.logger.Info("replacing install directory", "dir", p.install.Root)
		if err := resetDir(p.install.Root); err != nil {
			return fmt.Errorf("clean install directory: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) patch(p *plan) error {
	if o.opts.GOOS == "darwin" {
		o.logger.Info("Metal available, source left unpatched")
		return nil
	}
	if err := writable(p.sourceDir); err != nil {
		return fmt.Errorf("source tree %s is not writable: %w", p.sourceDir, err)
	}
	engine := &patch.Engine{Logger: o.logger.With("stage", string(StatePatch))}
	report, err := engine.Apply(patch.MetalRules(p.sourceDir))
	o.result.Patch = report
	if err != nil {
		return err
	}
	o.logger.Info("patching done",
		"patched", len(report.Patched),
		"skipped", len(report.Skipped),
		"missing", len(report.Missing))
	return nil
}

func (o *Orchestrator) primary(ctx context.Context, p *plan) error {
	prof := o.opts.Profile
	builder := &config.Builder{
		SourceDir:     p.sourceDir,
		BuildDir:      p.inv.BuildPath,
		InstallPrefix: p.install.Root,
		Generator:     prof.Generator,
		BuildType:     prof.BuildType,
		Options:       prof.Options,
		Target: config.Target{
			OS:            o.opts.GOOS,
			Arch:          o.opts.GOARCH,
			PythonVersion: p.inv.PythonVersion(),
		},
		Python: deps.LocatePython(p.table.Root(deps.Python), p.inv.PythonVersion()),
	}
	if builder.Python.Fallback {
		o.warn("python interpreter not found under its root, using PATH", "executable", builder.Python.Executable)
	}
	for _, f := range builder.Unsatisfied(p.table) {
		o.warn("feature enabled without its dependency", "option", f.Option, "requires", f.Requires)
	}

	c, err := builder.CMake(p.table)
	if err != nil {
		return err
	}
	c.Binary(p.cmakeBin).Runner(o.opts.Runner).Jobs(o.opts.Parallel)
	var bs buildsys.BuildSystem = c
	bs.Env(p.environ)

	configure := c.ConfigureCmd()
	o.logger.Info("cmake arguments", "target", builder.Target.String(), "count", len(configure.Args))
	for i, arg := range configure.Args {
		o.logger.Info("cmake argument", "index", i, "arg", arg)
	}

	stages := []Stage{
		{Name: "configure", State: StateConfigure, Cmd: configure, Run: func(ctx context.Context) error { return bs.Configure(ctx) }},
		{Name: "compile", State: StateCompile, Cmd: c.BuildCmd(), Run: func(ctx context.Context) error { return bs.Build(ctx) }},
	}
	if p.install.Requested {
		stages = append(stages, Stage{
			Name: "install", State: StateInstall, Cmd: c.InstallCmd(),
			Run: func(ctx context.Context) error { return bs.Install(ctx) },
		})
	}
	for _, s := range stages {
		o.result.State = s.State
		if err := o.runStage(ctx, s); err != nil {
			return err
		}
	}
	o.logger.Info("primary build complete", "version", p.inv.Version, "output", bs.OutputDir())
	return nil
}

// runStage runs s and records its outcome.
func (o *Orchestrator) runStage(ctx context.Context, s Stage) error {
	logger := o.logger.With("stage", s.Name)
	logger.Info("running", "cmd", s.Cmd.String(), "dir", s.Cmd.Dir)
	var err error
	if s.Run != nil {
		err = s.Run(ctx)
	} else {
		err = o.opts.Runner.Run(ctx, s.Cmd)
	}
	o.result.Stages = append(o.result.Stages, StageResult{Stage: s, Err: err})
	if err != nil {
		if s.Criticality == Isolated {
			o.warn("stage failed, continuing", "stage", s.Name, "err", err)
		} else {
			logger.Error("stage failed", "err", err)
		}
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	return nil
}

func (o *Orchestrator) warn(msg string, args ...any) {
	o.logger.Warn(msg, args...)
	o.result.Warnings = append(o.result.Warnings, formatWarning(msg, args))
}

func (o *Orchestrator) fail(err error) (*Result, error) {
	o.result.FailedAt = o.result.State
	o.result.State = StateFailed
	return o.result, err
}

func formatWarning(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}

// cmakeBinary prefers the cmake of the resolved cmake package. Child
// processes are looked up on the current PATH, not the overlay's.
func cmakeBinary(table *deps.Table) string {
	if bin := deps.FindFile(table.Root(deps.CMake), []string{filepath.Join("bin", "cmake")}); bin != "" {
		return bin
	}
	return "cmake"
}

func lookupEnv(environ []string) func(string) string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return func(key string) string { return m[key] }
}
