package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deepscan/internal/api"
	"deepscan/internal/detection"
	"deepscan/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var formatFlags []string
	var mediaTypeFlag string
	var withForensics bool
	var stdout bool

	cmd := &cobra.Command{
		Use:   "report <path>",
		Short: "Analyse a file and write its reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			formats, err := parseReportFormats(formatFlags)
			if err != nil {
				return err
			}
			if len(formats) == 0 {
				formats = []report.Format{report.FormatJSON}
			}
			mediaType, err := detection.ParseMediaType(mediaTypeFlag)
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
			}
			if !stdout {
				req.ReportDir = cfg.Paths.ReportDir
				req.ReportFormats = formats
			}
			out, err := api.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			if stdout {
				return report.New(out.Result, out.Forensics).Write(cmd.OutOrStdout(), formats[0])
			}
			for _, format := range formats {
				fmt.Fprintln(cmd.OutOrStdout(), out.ReportPaths[format])
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&formatFlags, "format", "f", nil, "Report formats (json, yaml, html); defaults to json")
	cmd.Flags().StringVarP(&mediaTypeFlag, "type", "t", "", "Media type (image, video, audio)")
	cmd.Flags().BoolVar(&withForensics, "forensics", false, "Include forensic findings for images")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the first format to stdout instead of writing files")
	return cmd
}
