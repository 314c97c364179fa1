package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"deepscan/internal/logging"
	"deepscan/internal/media/ffprobe"
	"deepscan/internal/services"
)

// DefaultTargetRate is the resampling rate used for analysis.
const DefaultTargetRate = 16000

// Waveform is a mono signal in [-1, 1] resampled to SampleRate. NativeRate is
// the rate of the source stream.
type Waveform struct {
	Samples    []float64
	SampleRate int
	NativeRate int
}

// Empty reports whether no samples were decoded.
func (w Waveform) Empty() bool {
	return len(w.Samples) == 0
}

// DurationSeconds returns the decoded length in seconds.
func (w Waveform) DurationSeconds() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Properties describes the primary audio stream of a file.
type Properties struct {
	StreamIndex int
	Codec       string
	SampleRate  int
	Channels    int
	Duration    float64
	FrameCount  int64
	FileSize    int64
}

// Map renders the properties with the keys used in detection results.
func (p Properties) Map() map[string]any {
	return map[string]any{
		"sample_rate": p.SampleRate,
		"channels":    p.Channels,
		"codec":       p.Codec,
		"duration":    p.Duration,
		"frame_count": p.FrameCount,
		"file_size":   p.FileSize,
	}
}

// Reader decodes audio through ffprobe and ffmpeg.
type Reader struct {
	FFmpeg     string
	FFprobe    string
	TargetRate int
	Logger     *slog.Logger
}

// NewReader returns a reader resampling to targetRate (DefaultTargetRate when <= 0).
func NewReader(ffmpegBinary, ffprobeBinary string, targetRate int, logger *slog.Logger) *Reader {
	if targetRate <= 0 {
		targetRate = DefaultTargetRate
	}
	return &Reader{
		FFmpeg:     ffmpegBinary,
		FFprobe:    ffprobeBinary,
		TargetRate: targetRate,
		Logger:     logging.NewComponentLogger(logger, "audio"),
	}
}

// Properties inspects the file and describes its primary audio stream.
func (r *Reader) Properties(ctx context.Context, path string) (Properties, error) {
	probe, err := ffprobe.Inspect(ctx, r.FFprobe, path)
	if err != nil {
		return Properties{}, services.Wrap(services.ErrExternalTool, "audio", "probe", path, err)
	}
	sel := Select(probe.Streams)
	if !sel.Found() {
		return Properties{}, services.Wrap(services.ErrDecode, "audio", "probe", "no audio stream", nil)
	}
	props := Properties{
		StreamIndex: sel.PrimaryIndex,
		Codec:       sel.Primary.CodecName,
		SampleRate:  sel.Primary.SampleRateHz(),
		Channels:    sel.Primary.Channels,
		Duration:    sel.Primary.DurationSeconds(),
		FileSize:    probe.SizeBytes(),
	}
	if props.Duration <= 0 {
		if d := probe.DurationSeconds(); d > 0 && !math.IsNaN(d) {
			props.Duration = d
		}
	}
	if props.SampleRate > 0 {
		props.FrameCount = int64(math.Round(props.Duration * float64(props.SampleRate)))
	}
	if props.FileSize == 0 {
		if info, err := os.Stat(path); err == nil {
			props.FileSize = info.Size()
		}
	}
	return props, nil
}

// Load decodes the primary audio stream to mono at the target rate. Any
// failure yields an empty waveform; the cause is logged.
func (r *Reader) Load(ctx context.Context, path string) Waveform {
	logger := logging.WithContext(ctx, r.Logger)
	props, err := r.Properties(ctx, path)
	if err != nil {
		logging.WarnWithContext(logger, "audio probe failed", "audio_probe_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "audio analysis skipped"),
		)
		return Waveform{}
	}
	samples, err := r.decode(ctx, path, props.StreamIndex)
	if err != nil {
		failure := classifyDecodeFailure(err)
		logging.WarnWithContext(logger, "audio decode failed", failure.reason,
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, failure.hint),
			logging.String(logging.FieldImpact, "audio analysis skipped"),
		)
		return Waveform{}
	}
	logger.Debug("audio decoded",
		logging.Int("samples", len(samples)),
		logging.Int("native_rate", props.SampleRate),
		logging.Int("target_rate", r.TargetRate),
	)
	return Waveform{Samples: samples, SampleRate: r.TargetRate, NativeRate: props.SampleRate}
}

func (r *Reader) decode(ctx context.Context, path string, streamIndex int) ([]float64, error) {
	ffmpegBinary := strings.TrimSpace(r.FFmpeg)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-ac", "1",
		"-ar", strconv.Itoa(r.TargetRate),
		"-f", "f32le",
		"-",
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg pcm extract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	samples := DecodeFloat32LE(stdout.Bytes())
	if len(samples) == 0 {
		return nil, fmt.Errorf("ffmpeg pcm extract: no samples decoded")
	}
	return samples, nil
}

// DecodeFloat32LE converts little-endian float32 PCM into float64 samples. A
// trailing partial sample is ignored.
func DecodeFloat32LE(data []byte) []float64 {
	n := len(data) / 4
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return out
}

type decodeFailure struct {
	reason string
	hint   string
}

func classifyDecodeFailure(err error) decodeFailure {
	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "executable file not found") || strings.Contains(message, "no such file or directory"):
		return decodeFailure{reason: "audio_decoder_missing", hint: "install ffmpeg or set media.ffmpeg_binary"}
	case strings.Contains(message, "stream specifier") || strings.Contains(message, "matches no streams"):
		return decodeFailure{reason: "audio_stream_missing", hint: "ffmpeg could not map the selected audio stream"}
	case strings.Contains(message, "invalid data found") || strings.Contains(message, "error while decoding"):
		return decodeFailure{reason: "audio_decode_error", hint: "the audio stream is corrupt or uses an unsupported codec"}
	case strings.Contains(message, "no samples decoded"):
		return decodeFailure{reason: "audio_empty", hint: "the audio stream contains no samples"}
	default:
		return decodeFailure{reason: "audio_decode_failed", hint: "check ffmpeg output for details"}
	}
}
