package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deepscan/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check directories, model checkpoints, and media tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Environment", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusWarn
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if failed := preflight.Failed(results); strict && len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any check fails")
	return cmd
}
