package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"deepscan/internal/media/raster"
	"deepscan/internal/media/video"
)

func newFrameCommand(ctx *commandContext) *cobra.Command {
	var at float64
	var outPath string

	cmd := &cobra.Command{
		Use:   "frame <video>",
		Short: "Extract the video frame at a timestamp as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(outPath) == "" {
				return errors.New("--out is required")
			}
			if at < 0 {
				return fmt.Errorf("--at must be non-negative, got %g", at)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			reader := video.NewReader(cfg.FFmpegBinary(), cfg.FFprobeBinary(), cfg.Detection.MaxFrames, logger)
			img, err := reader.FrameAt(cmd.Context(), args[0], at)
			if err != nil {
				return err
			}
			if err := raster.WritePNG(outPath, img); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %dx%d frame at %.2fs to %s\n", img.Width, img.Height, at, outPath)
			return nil
		},
	}

	cmd.Flags().Float64Var(&at, "at", 0, "Timestamp in seconds")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination PNG file")
	return cmd
}
