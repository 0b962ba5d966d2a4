package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/usdbuild/internal/build"
	"github.com/goplus/usdbuild/internal/env"
	"github.com/goplus/usdbuild/internal/profile"
	"github.com/goplus/usdbuild/internal/runner"
)

var (
	buildProfile     string
	buildInstallBase string
	buildJobs        int
	buildEnable      []string
	buildDisable     []string
)

var buildCmd = &cobra.Command{
	Use:   "build [targets...]",
	Short: "Build OpenUSD from the package environment",
	Long: `Build cleans the build directory, patches the source tree, then configures,
compiles and (with the "install" target) installs OpenUSD. The arnold-usd
plugin is built afterwards when its source and the Arnold SDK are available;
a plugin failure is reported as a warning and does not fail the build.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildProfile, "profile", "", "Build profile (YAML)")
	buildCmd.Flags().StringVar(&buildInstallBase, "install-base", "", "Override the package install base")
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "Parallel compile jobs (0 uses every available CPU)")
	buildCmd.Flags().StringSliceVar(&buildEnable, "enable", nil, "Enable build options")
	buildCmd.Flags().StringSliceVar(&buildDisable, "disable", nil, "Disable build options")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if buildJobs < 0 {
		return fmt.Errorf("--jobs must not be negative, got %d", buildJobs)
	}
	prof, err := loadProfile(buildProfile, buildInstallBase, buildEnable, buildDisable)
	if err != nil {
		return err
	}

	o := build.New(build.Options{
		Env:     env.New(nil),
		Targets: args,
		Profile: prof,
		Runner: &runner.Exec{
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		},
		Logger:   logger,
		Parallel: buildJobs,
	})
	res, err := o.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("build failed in %s: %w", failedStage(res), err)
	}
	return nil
}

// loadProfile applies the command line overrides on top of the profile.
func loadProfile(path, installBase string, enable, disable []string) (*profile.Profile, error) {
	prof, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	if installBase != "" {
		prof.InstallBase = installBase
	}
	for _, name := range enable {
		if err := prof.Options.Set(name, true); err != nil {
			return nil, fmt.Errorf("--enable: %w", err)
		}
	}
	for _, name := range disable {
		if err := prof.Options.Set(name, false); err != nil {
			return nil, fmt.Errorf("--disable: %w", err)
		}
	}
	return prof, prof.Validate()
}

// failedStage names the state that aborted res.
func failedStage(res *build.Result) build.State {
	if res == nil || res.FailedAt == "" {
		return build.StateInit
	}
	return res.FailedAt
}
