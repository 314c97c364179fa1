package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"deepscan/internal/forensics"
)

func newForensicsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "forensics <image>",
		Short: "Run forensic heuristics on an image without model scoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			fr, err := forensics.NewAnalyzer(logger).AnalyzeImage(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, fr)
			}
			printForensics(cmd, fr, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printForensics(cmd *cobra.Command, fr *forensics.Report, colorize bool) {
	out := cmd.OutOrStdout()
	title := "Forensic analysis"
	if fr.FileProperties != nil {
		title = fr.FileProperties.Filename
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}

	flags := fr.Flags()
	if len(flags) == 0 {
		fmt.Fprintln(out, renderStatusLine("Flags", statusOK, "none", colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Flags", statusWarn, strings.Join(flags, ", "), colorize))
	}
	if h := fr.FileHeaders; h != nil {
		detected := h.DetectedExtension
		if detected == "" {
			detected = "unknown"
		}
		kind := statusOK
		if h.ExtensionMismatch {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine("Detected type", kind, detected, colorize))
	}

	var rows [][]string
	if c := fr.Compression; c != nil {
		rows = append(rows, []string{"Compression artifacts", fmt.Sprintf("%.4f", c.ArtifactScore), yesNo(c.LikelyCompressed)})
	}
	if n := fr.Noise; n != nil {
		rows = append(rows, []string{"Noise std", fmt.Sprintf("%.3f", n.Std), yesNo(n.UnnaturalNoise)})
	}
	if c := fr.Color; c != nil {
		rows = append(rows, []string{"Colour correlation (RG)", fmt.Sprintf("%.3f", c.RGCorrelation), yesNo(c.UnnaturalColors)})
	}
	if e := fr.Edges; e != nil {
		rows = append(rows, []string{"Edge ratio", fmt.Sprintf("%.4f", e.Ratio), yesNo(e.SuspiciousEdges)})
	}
	if l := fr.Lighting; l != nil {
		rows = append(rows, []string{"Luminance variance", fmt.Sprintf("%.2f", l.LuminanceVariance), yesNo(l.InconsistentLighting)})
	}
	if s := fr.Shadow; s != nil {
		rows = append(rows, []string{"Shadow/highlight ratio", fmt.Sprintf("%.3f / %.3f", s.ShadowRatio, s.HighlightRatio), yesNo(s.ExtremeShadowHighlight)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]column{leftColumn("Check"), rightColumn("Value"), leftColumn("Flagged")},
			rows,
		))
	}

	if len(fr.Metadata) > 0 {
		fmt.Fprintln(out)
		exif := make([][]string, 0, len(fr.Metadata))
		for _, name := range slices.Sorted(maps.Keys(fr.Metadata)) {
			exif = append(exif, []string{name, fr.Metadata[name]})
		}
		fmt.Fprintln(out, renderTable([]column{leftColumn("EXIF tag"), wrappedColumn("Value", 60)}, exif))
	}

	for _, section := range slices.Sorted(maps.Keys(fr.Errors)) {
		fmt.Fprintln(out, renderStatusLine(titleLabel(section), statusError, fr.Errors[section], colorize))
	}
}
