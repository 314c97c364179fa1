package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"deepscan/internal/api"
	"deepscan/internal/detection"
	"deepscan/internal/report"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var mediaTypeFlag string
	var jsonOutput bool
	var withForensics bool
	var reportFlags []string
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "detect <path>",
		Short: "Analyse one image, video, or audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			mediaType, err := detection.ParseMediaType(mediaTypeFlag)
			if err != nil {
				return err
			}
			formats, err := parseReportFormats(reportFlags)
			if err != nil {
				return err
			}
			engine, err := ctx.detectionEngine()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}

			req := api.AnalyzeRequest{
				Engine:        engine,
				Logger:        logger,
				Path:          args[0],
				MediaType:     mediaType,
				WithForensics: withForensics,
				ReportDir:     cfg.Paths.ReportDir,
				ReportFormats: formats,
			}
			if !noHistory {
				store, err := ctx.openHistory()
				if err != nil {
					return err
				}
				if store != nil {
					defer store.Close()
					req.History = store
				}
			}

			out, err := api.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			view := out.Detection()
			if jsonOutput {
				return writeJSON(cmd, view)
			}
			printDetection(cmd, view, out.ReportPaths, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mediaTypeFlag, "type", "t", "", "Media type (image, video, audio); resolved from the extension when omitted")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&withForensics, "forensics", false, "Run forensic heuristics on images")
	cmd.Flags().StringSliceVar(&reportFlags, "report", nil, "Write reports in these formats (json, yaml, html)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the run in history")
	return cmd
}

func parseReportFormats(values []string) ([]report.Format, error) {
	var formats []report.Format
	seen := map[report.Format]bool{}
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		format, err := report.ParseFormat(value)
		if err != nil {
			return nil, err
		}
		if seen[format] {
			continue
		}
		seen[format] = true
		formats = append(formats, format)
	}
	return formats, nil
}

func printDetection(cmd *cobra.Command, view api.Detection, reportPaths map[report.Format]string, colorize bool) {
	out := cmd.OutOrStdout()
	for _, line := range renderSectionHeader(view.Filename, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Media type", statusInfo, view.MediaType, colorize))
	fmt.Fprintln(out, renderVerdict(view.IsDeepfake, view.Confidence, view.Error, colorize))
	if view.RunID != "" {
		fmt.Fprintln(out, renderStatusLine("Run", statusInfo, view.RunID, colorize))
	}

	if len(view.ModelPredictions) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]column{leftColumn("Model"), leftColumn("Verdict"), rightColumn("Confidence")},
			predictionRows(view),
		))
	}

	if view.Forensics != nil {
		fmt.Fprintln(out)
		flags := "none"
		if len(view.Forensics.Flags) > 0 {
			flags = strings.Join(view.Forensics.Flags, ", ")
		}
		kind := statusOK
		if len(view.Forensics.Flags) > 0 {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine("Forensic flags", kind, flags, colorize))
		fmt.Fprintln(out, renderStatusLine("EXIF tags", statusInfo, fmt.Sprintf("%d", view.Forensics.EXIF), colorize))
	}

	for _, format := range report.Formats() {
		if path, ok := reportPaths[format]; ok {
			fmt.Fprintln(out, renderStatusLine(strings.ToUpper(string(format))+" report", statusInfo, path, colorize))
		}
	}
}

func predictionRows(view api.Detection) [][]string {
	names := slices.Sorted(maps.Keys(view.ModelPredictions))
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		verdict := "real"
		if view.ModelPredictions[name] {
			verdict = "fake"
		}
		rows = append(rows, []string{
			titleLabel(name),
			verdict,
			formatPercent(view.ModelConfidences[name]),
		})
	}
	return rows
}
