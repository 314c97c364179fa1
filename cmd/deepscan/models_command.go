package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deepscan/internal/api"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List registered detection models and their weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.detectionEngine()
			if err != nil {
				return err
			}
			info := api.BuildSystemInfo(engine.Registry())
			if jsonOutput {
				return writeJSON(cmd, info)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device: %s\n", info.Device)
			rows := make([][]string, 0, len(info.Models))
			for _, m := range info.Models {
				checkpoint := m.Checkpoint
				if checkpoint == "" {
					checkpoint = "-"
				}
				rows = append(rows, []string{m.Name, m.State, fmt.Sprintf("%d", m.Parameters), checkpoint})
			}
			fmt.Fprintln(out, renderTable(
				[]column{leftColumn("Model"), leftColumn("Weights"), rightColumn("Parameters"), wrappedColumn("Checkpoint", 60)},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
