package cmake

import (
	"context"
	"os"
	"sort"
	"strconv"

	"github.com/goplus/usdbuild/internal/runner"
	"github.com/goplus/usdbuild/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	bin        string
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	defines    map[string]defineValue
	jobs       int
	env        []string
	runner     runner.Runner
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake driver for sourceDir, building in buildDir and
// installing to installDir. Commands run through runner.Exec unless
// Runner is called.
func New(sourceDir, buildDir, installDir string) *CMake {
	return &CMake{
		bin:        "cmake",
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		defines:    map[string]defineValue{},
		runner:     &runner.Exec{},
	}
}

func (c *CMake) Env(environ []string) {
	c.env = environ
}

// Binary sets the cmake executable, "cmake" by default.
func (c *CMake) Binary(path string) *CMake {
	if path != "" {
		c.bin = path
	}
	return c
}

// Runner sets the runner used for every step.
func (c *CMake) Runner(r runner.Runner) *CMake {
	c.runner = r
	return c
}

// Jobs sets the parallel job count of the build step; n <= 0 leaves it to
// the underlying build tool.
func (c *CMake) Jobs(n int) *CMake {
	c.jobs = n
	return c
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	return c.define(key, value, "STRING")
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		return c.define(key, "ON", "BOOL")
	}
	return c.define(key, "OFF", "BOOL")
}

// DefinePath adds a -D<key>:PATH=<dir> definition.
func (c *CMake) DefinePath(key, dir string) *CMake {
	return c.define(key, dir, "PATH")
}

// DefineFilePath adds a -D<key>:FILEPATH=<file> definition.
func (c *CMake) DefineFilePath(key, file string) *CMake {
	return c.define(key, file, "FILEPATH")
}

func (c *CMake) define(key, value, typeName string) *CMake {
	if c.defines == nil {
		c.defines = map[string]defineValue{}
	}
	c.defines[key] = defineValue{value: value, typeName: typeName}
	return c
}

// ConfigureArgs returns the arguments of the configure step. Definitions
// are sorted by name so the result is stable.
func (c *CMake) ConfigureArgs(args ...string) []string {
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	defines := make(map[string]defineValue, len(c.defines)+2)
	for k, v := range c.defines {
		defines[k] = v
	}
	if c.installDir != "" {
		defines["CMAKE_INSTALL_PREFIX"] = defineValue{value: c.installDir, typeName: "PATH"}
	}
	if c.buildType != "" {
		defines["CMAKE_BUILD_TYPE"] = defineValue{value: c.buildType, typeName: "STRING"}
	}
	cmakeArgs = append(cmakeArgs, definesArgs(defines)...)
	return append(cmakeArgs, args...)
}

// ConfigureCmd returns the configure command.
func (c *CMake) ConfigureCmd(args ...string) runner.Cmd {
	return c.cmd(c.ConfigureArgs(args...))
}

// BuildCmd returns the build command, requesting the configured number of
// parallel jobs.
func (c *CMake) BuildCmd(args ...string) runner.Cmd {
	cmdArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.jobs > 0 {
		cmdArgs = append(cmdArgs, "--parallel", strconv.Itoa(c.jobs))
	}
	return c.cmd(append(cmdArgs, args...))
}

// InstallCmd returns the install command.
func (c *CMake) InstallCmd(args ...string) runner.Cmd {
	cmdArgs := []string{"--install", c.buildDir}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	return c.cmd(append(cmdArgs, args...))
}

func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return c.runner.Run(ctx, c.ConfigureCmd(args...))
}

func (c *CMake) Build(ctx context.Context, args ...string) error {
	return c.runner.Run(ctx, c.BuildCmd(args...))
}

func (c *CMake) Install(ctx context.Context, args ...string) error {
	return c.runner.Run(ctx, c.InstallCmd(args...))
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) cmd(args []string) runner.Cmd {
	return runner.Cmd{Name: c.bin, Args: args, Dir: c.buildDir, Env: c.env}
}

func definesArgs(defines map[string]defineValue) []string {
	if len(defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}
