package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"deepscan/internal/api"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage recorded detection runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	historyCmd.AddCommand(newHistoryStatsCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be non-negative, got %d", limit)
			}
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			entries := api.FromRecords(records)
			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				verdict := "authentic"
				switch {
				case e.Error != "":
					verdict = "error"
				case e.IsDeepfake:
					verdict = "deepfake"
				}
				rows = append(rows, []string{
					e.ID,
					e.CreatedAt,
					e.Filename,
					e.MediaType,
					verdict,
					formatPercent(e.Confidence),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{
					leftColumn("ID"),
					leftColumn("Created"),
					wrappedColumn("File", 40),
					leftColumn("Type"),
					leftColumn("Verdict"),
					rightColumn("Confidence"),
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the stored result of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			id := strings.TrimSpace(args[0])
			record, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("run %s not found", id)
			}
			view := api.FromResult(record.Result())
			view.RunID = record.ID
			view.SHA256 = record.SHA256
			if jsonOutput {
				return writeJSON(cmd, struct {
					Run    api.HistoryEntry `json:"run"`
					Result api.Detection    `json:"result"`
				}{api.FromRecord(record), view})
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			printDetection(cmd, view, nil, colorize)
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Recorded", statusInfo, api.FormatTime(record.CreatedAt), colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Delete recorded runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			var missing []string
			for _, id := range args {
				removed, err := store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					missing = append(missing, id)
					continue
				}
				fmt.Fprintf(out, "Removed %s\n", id)
			}
			if len(missing) > 0 {
				return errors.New("not found: " + strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("refusing to clear history without --force")
			}
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion")
	return cmd
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total runs: %d\n", stats.Total)
			fmt.Fprintf(out, "Deepfakes:  %d\n", stats.Deepfakes)
			for _, mediaType := range []string{"image", "video", "audio", "unknown"} {
				if n := stats.ByType[mediaType]; n > 0 {
					fmt.Fprintf(out, "  %-8s %d\n", mediaType+":", n)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
