package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"deepscan/internal/api"
	"deepscan/internal/detection"
	"deepscan/internal/fileutil"
	"deepscan/internal/history"
	"deepscan/internal/logging"
)

const batchLockName = "batch.lock"

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Analyse several files in order",
		Long: "Analyse several files in order. Files that cannot be analysed are reported\n" +
			"with media type unknown and an error message; the batch always completes.\n" +
			"Only one batch runs at a time per log directory.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}

			lock := flock.New(filepath.Join(cfg.Paths.LogDir, batchLockName))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire batch lock: %w", err)
			}
			if !ok {
				return errors.New("another batch is already running")
			}
			defer func() {
				_ = lock.Unlock()
			}()

			engine, err := ctx.detectionEngine()
			if err != nil {
				return err
			}

			var store *history.Store
			if !noHistory {
				store, err = ctx.openHistory()
				if err != nil {
					return err
				}
				if store != nil {
					defer store.Close()
				}
			}

			results := engine.BatchDetect(cmd.Context(), args)
			views := make([]api.Detection, 0, len(results))
			for i, result := range results {
				view := api.FromResult(result)
				if store != nil {
					recordBatchItem(cmd.Context(), logger, store, args[i], result, &view)
				}
				views = append(views, view)
			}

			if jsonOutput {
				return writeJSON(cmd, views)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{
					wrappedColumn("File", 40),
					leftColumn("Type"),
					leftColumn("Verdict"),
					rightColumn("Confidence"),
					wrappedColumn("Error", 60),
				},
				batchRows(views),
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the runs in history")
	return cmd
}

// recordBatchItem saves one batch result. A failed save is logged and leaves
// the view without a run ID.
func recordBatchItem(ctx context.Context, logger *slog.Logger, store *history.Store, path string, result *detection.Result, view *api.Detection) {
	digest, _, _ := fileutil.HashFile(path)
	runID := uuid.NewString()
	if _, err := store.Save(ctx, runID, result, digest); err != nil {
		logging.WarnWithContext(logger, "history save failed", "history_save_failed",
			logging.String(logging.FieldSourceFile, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "batch item not recorded in history"),
		)
		return
	}
	view.RunID = runID
	view.SHA256 = digest
}

func batchRows(views []api.Detection) [][]string {
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		verdict := "authentic"
		switch {
		case view.Error != "":
			verdict = "error"
		case view.IsDeepfake:
			verdict = "deepfake"
		}
		rows = append(rows, []string{
			filepath.Base(view.Filename),
			view.MediaType,
			verdict,
			formatPercent(view.Confidence),
			view.Error,
		})
	}
	return rows
}
