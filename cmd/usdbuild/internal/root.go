package internal

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goplus/usdbuild/internal/logging"
	"github.com/goplus/usdbuild/internal/runner"
)

var (
	logLevel  string
	logFormat string
	levelVar  slog.LevelVar
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "usdbuild",
	Short: "usdbuild builds OpenUSD inside a package build environment",
	Long: `usdbuild builds OpenUSD and the optional arnold-usd plugin with CMake,
using the dependency roots and build paths exported by the package manager.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log verbosity (debug, info, warning, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	mode, err := logging.ParseMode(logFormat)
	if err != nil {
		return err
	}
	levelVar.Set(level)
	logger = logging.New(mode, cmd.ErrOrStderr(), &levelVar)
	slog.SetDefault(logger)
	return nil
}

// Execute runs the root command and returns the process exit code.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		logging.Ensure(logger).Warn("interrupted", "err", err)
	} else {
		logging.Ensure(logger).Error("usdbuild failed", "err", err)
	}
	return exitCode(err)
}

// exitCode propagates the exit status of a failed build tool.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}
