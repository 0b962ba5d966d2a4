package internal

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goplus/usdbuild/internal/deps"
	"github.com/goplus/usdbuild/internal/env"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Show how dependencies resolve in the current environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		roots := env.New(nil)
		table := deps.ResolveEnv(deps.Manifest, roots)
		py := deps.LocatePython(table.Root(deps.Python), roots.Invocation().PythonVersion())
		return writeDeps(cmd.OutOrStdout(), table, py)
	},
}

func init() {
	rootCmd.AddCommand(depsCmd)
}

func writeDeps(w io.Writer, table *deps.Table, py deps.PythonInstall) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVARIABLE\tROOT\tCONFIG")
	for _, e := range table.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Spec.Name, e.Spec.EnvKey, orDash(e.Resolved.Root), orDash(e.Resolved.ConfigDir))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	source := "root"
	if py.Fallback {
		source = "PATH"
	}
	_, err := fmt.Fprintf(w, "\npython: %s (from %s)\n", py.Executable, source)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
