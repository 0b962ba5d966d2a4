package build

import (
	"context"
	"os"
	"path/filepath"

	"github.com/goplus/usdbuild/internal/deps"
	"github.com/goplus/usdbuild/internal/version"
	"github.com/goplus/usdbuild/pkgs/buildsys"
	"github.com/goplus/usdbuild/pkgs/buildsys/cmake"
)

const pluginName = "arnold-usd"

var pluginConfigureArgs = []string{"-Wno-dev"}

// secondary builds the arnold-usd plugin against the fresh install when
// its source tree and the Arnold SDK are both present. Every failure is
// isolated: the plugin is optional and the run still succeeds without it.
func (o *Orchestrator) secondary(ctx context.Context, p *plan) {
	srcDir := filepath.Join(p.inv.SourcePath, "source", pluginName)
	arnold := p.table.Root(deps.Arnold)
	if fi, err := os.Stat(srcDir); err != nil || !fi.IsDir() || arnold == "" {
		o.logger.Info("plugin source or Arnold SDK not found, skipping plugin build", "plugin", pluginName)
		return
	}
	sec := o.opts.Profile.Secondary
	if !sec.IsEnabled() {
		o.logger.Info("plugin build disabled by profile", "plugin", pluginName)
		return
	}
	if sec.MinVersion != "" && !version.Valid(p.inv.Version) {
		o.warn("version not comparable with plugin minimum, skipping plugin build",
			"plugin", pluginName, "version", p.inv.Version, "min_version", sec.MinVersion)
		return
	}
	if !sec.Allows(p.inv.Version) {
		o.warn("version below plugin minimum, skipping plugin build",
			"plugin", pluginName, "version", p.inv.Version, "min_version", sec.MinVersion)
		return
	}

	buildDir := filepath.Join(p.inv.BuildPath, pluginName)
	c := pluginCMake(srcDir, buildDir, p.install.Root, arnold).
		Binary(p.cmakeBin).
		Runner(o.opts.Runner).
		Jobs(o.opts.Parallel)
	var bs buildsys.BuildSystem = c
	bs.Env(p.environ)

	o.logger.Info("building plugin", "plugin", pluginName, "arnold", arnold)
	stages := []Stage{
		{
			Name: pluginName + " configure", State: StateSecondary, Criticality: Isolated,
			Cmd: c.ConfigureCmd(pluginConfigureArgs...),
			Run: func(ctx context.Context) error { return bs.Configure(ctx, pluginConfigureArgs...) },
		},
		{
			Name: pluginName + " compile", State: StateSecondary, Criticality: Isolated,
			Cmd: c.BuildCmd(),
			Run: func(ctx context.Context) error { return bs.Build(ctx) },
		},
		{
			Name: pluginName + " install", State: StateSecondary, Criticality: Isolated,
			Cmd: c.InstallCmd(),
			Run: func(ctx context.Context) error { return bs.Install(ctx) },
		},
	}
	for _, s := range stages {
		if err := o.runStage(ctx, s); err != nil {
			return
		}
	}
	o.logger.Info("plugin installed", "plugin", pluginName, "install", p.install.Root)
}

// pluginCMake points the plugin at the USD install and the Arnold SDK
// explicitly instead of relying on package discovery.
func pluginCMake(srcDir, buildDir, usdRoot, arnoldRoot string) *cmake.CMake {
	return cmake.New(srcDir, buildDir, usdRoot).
		BuildType("Release").
		DefinePath("USD_ROOT", usdRoot).
		DefinePath("ARNOLD_ROOT", arnoldRoot).
		DefinePath("ARNOLD_BINARY_DIR", filepath.Join(arnoldRoot, "bin")).
		DefineFilePath("ARNOLD_LIBRARY", filepath.Join(arnoldRoot, "bin", "libai.so")).
		DefinePath("ARNOLD_INCLUDE_DIR", filepath.Join(arnoldRoot, "include"))
}
