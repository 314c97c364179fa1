package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"deepscan/internal/logging"
	"deepscan/internal/media/ffprobe"
	"deepscan/internal/media/raster"
	"deepscan/internal/services"
)

// Properties describes the primary video stream of a file.
type Properties struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int64
	// Duration is FrameCount/FPS; it is only meaningful when DurationKnown.
	Duration      float64
	DurationKnown bool
	Codec         string
	FileSize      int64
}

// Map renders the properties with the keys used in detection results. An
// unknown duration is reported as the string "unknown".
func (p Properties) Map() map[string]any {
	out := map[string]any{
		"width":       p.Width,
		"height":      p.Height,
		"fps":         p.FPS,
		"frame_count": p.FrameCount,
		"codec":       p.Codec,
		"file_size":   p.FileSize,
	}
	if p.DurationKnown {
		out["duration"] = p.Duration
	} else {
		out["duration"] = "unknown"
	}
	return out
}

// Reader extracts properties and RGB frames through ffprobe and ffmpeg.
type Reader struct {
	FFmpeg  string
	FFprobe string
	// MaxFrames bounds the number of frames decoded per call; 0 means no bound.
	MaxFrames int
	Logger    *slog.Logger
}

// NewReader returns a reader using the given executables.
func NewReader(ffmpegBinary, ffprobeBinary string, maxFrames int, logger *slog.Logger) *Reader {
	return &Reader{
		FFmpeg:    ffmpegBinary,
		FFprobe:   ffprobeBinary,
		MaxFrames: maxFrames,
		Logger:    logging.NewComponentLogger(logger, "video"),
	}
}

// Properties inspects the first video stream of path.
func (r *Reader) Properties(ctx context.Context, path string) (Properties, error) {
	probe, err := ffprobe.Inspect(ctx, r.FFprobe, path)
	if err != nil {
		return Properties{}, services.Wrap(services.ErrExternalTool, "video", "probe", path, err)
	}
	stream, ok := probe.FirstVideoStream()
	if !ok {
		return Properties{}, services.Wrap(services.ErrDecode, "video", "probe", "no video stream", nil)
	}
	props := Properties{
		Width:      stream.Width,
		Height:     stream.Height,
		FPS:        stream.FrameRate(),
		FrameCount: stream.FrameCount(),
		Codec:      stream.CodecName,
		FileSize:   probe.SizeBytes(),
	}
	if props.FrameCount == 0 && props.FPS > 0 {
		seconds := stream.DurationSeconds()
		if seconds <= 0 {
			if d := probe.DurationSeconds(); d > 0 && !math.IsNaN(d) {
				seconds = d
			}
		}
		props.FrameCount = int64(math.Round(seconds * props.FPS))
	}
	if props.FPS > 0 {
		props.Duration = float64(props.FrameCount) / props.FPS
		props.DurationKnown = true
	}
	if props.FileSize == 0 {
		if info, err := os.Stat(path); err == nil {
			props.FileSize = info.Size()
		}
	}
	return props, nil
}

// ExtractFrames decodes every sampleRate-th frame (indices 0, n, 2n, ...) in
// source order. When decoding stops early the frames read so far are returned
// together with the error describing the truncation.
func (r *Reader) ExtractFrames(ctx context.Context, path string, sampleRate int) ([]*raster.Image, error) {
	if sampleRate <= 0 {
		sampleRate = 1
	}
	props, err := r.Properties(ctx, path)
	if err != nil {
		return nil, err
	}
	filter := fmt.Sprintf(`select=not(mod(n\,%d))`, sampleRate)
	frames, err := r.decode(ctx, path, props, filter, r.MaxFrames)
	logger := logging.WithContext(ctx, r.Logger)
	if err != nil {
		logging.WarnWithContext(logger, "frame extraction stopped early", "frame_extraction_truncated",
			logging.String("path", path),
			logging.Int("frames_extracted", len(frames)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "video verdict uses the frames decoded before the failure"),
		)
		return frames, err
	}
	logger.Debug("frames extracted",
		logging.Int("frames", len(frames)),
		logging.Int("sample_rate", sampleRate),
		logging.Int64("frame_count", props.FrameCount),
	)
	return frames, nil
}

// FrameAt decodes the frame displayed at the given time, using frame index
// int(seconds * fps).
func (r *Reader) FrameAt(ctx context.Context, path string, seconds float64) (*raster.Image, error) {
	if seconds < 0 {
		return nil, services.Wrap(services.ErrValidation, "video", "frame at", "negative timestamp", nil)
	}
	props, err := r.Properties(ctx, path)
	if err != nil {
		return nil, err
	}
	if props.FPS <= 0 {
		return nil, services.Wrap(services.ErrDecode, "video", "frame at", "unknown frame rate", nil)
	}
	index := int64(seconds * props.FPS)
	filter := fmt.Sprintf(`select=eq(n\,%d)`, index)
	frames, err := r.decode(ctx, path, props, filter, 1)
	if len(frames) == 0 {
		if err == nil {
			err = fmt.Errorf("frame %d beyond end of stream", index)
		}
		return nil, services.Wrap(services.ErrDecode, "video", "frame at", strconv.FormatInt(index, 10), err)
	}
	return frames[0], nil
}

func (r *Reader) decode(ctx context.Context, path string, props Properties, filter string, limit int) ([]*raster.Image, error) {
	if props.Width <= 0 || props.Height <= 0 {
		return nil, services.Wrap(services.ErrDecode, "video", "decode", "unknown frame dimensions", nil)
	}
	ffmpegBinary := strings.TrimSpace(r.FFmpeg)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-noautorotate",
		"-i", path,
		"-map", "0:v:0",
		"-vf", filter,
		"-fps_mode", "passthrough",
	}
	if limit > 0 {
		args = append(args, "-frames:v", strconv.Itoa(limit))
	}
	args = append(args, "-pix_fmt", "rgb24", "-f", "rawvideo", "-")

	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "video", "start ffmpeg", ffmpegBinary, err)
	}

	frameSize := props.Width * props.Height * 3
	var frames []*raster.Image
	var readErr error
	for {
		buf := make([]byte, frameSize)
		_, err := io.ReadFull(stdout, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			readErr = errors.New("partial frame at end of stream")
			break
		}
		if err != nil {
			readErr = err
			break
		}
		frames = append(frames, &raster.Image{Width: props.Width, Height: props.Height, Pix: buf})
	}
	// Drain so ffmpeg never blocks on a full pipe before Wait.
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	switch {
	case waitErr != nil:
		return frames, services.Wrap(services.ErrExternalTool, "video", "decode frames",
			fmt.Sprintf("stopped after %d frames", len(frames)),
			fmt.Errorf("%w: %s", waitErr, strings.TrimSpace(stderr.String())))
	case readErr != nil:
		return frames, services.Wrap(services.ErrDecode, "video", "decode frames",
			fmt.Sprintf("stopped after %d frames", len(frames)), readErr)
	}
	return frames, nil
}
