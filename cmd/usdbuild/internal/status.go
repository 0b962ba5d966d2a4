package internal

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/spf13/cobra"

	"github.com/goplus/usdbuild/internal/build"
	"github.com/goplus/usdbuild/internal/env"
)

var statusBuildDir string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last successful install of a build directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := statusBuildDir
		if dir == "" {
			dir = env.New(nil).Get(env.BuildPath)
		}
		if dir == "" {
			return fmt.Errorf("no build directory: pass --build-dir or set %s", env.BuildPath)
		}
		rec, err := build.LoadRecord(dir)
		if errors.Is(err, fs.ErrNotExist) {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: not built\n", dir)
			return err
		}
		if err != nil {
			return err
		}
		return writeRecord(cmd.OutOrStdout(), rec)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusBuildDir, "build-dir", "", "Build directory (defaults to "+env.BuildPath+")")
	rootCmd.AddCommand(statusCmd)
}

func writeRecord(w io.Writer, rec *build.Record) error {
	_, err := fmt.Fprintf(w, "%s-%s (python %s)\ninstalled: %s\nbuilt:     %s\nrun:       %s\nmanifest:  blake3:%s\n",
		rec.Name, rec.Version, rec.Python,
		rec.InstallRoot,
		rec.BuildTime.Format(time.RFC3339),
		rec.RunID,
		rec.ManifestDigest)
	return err
}
