package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	PixFmt       string            `json:"pix_fmt"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	RFrameRate   string            `json:"r_frame_rate"`
	NBFrames     string            `json:"nb_frames"`
	Duration     string            `json:"duration"`
	BitRate      string            `json:"bit_rate"`
	SampleRate   string            `json:"sample_rate"`
	Channels     int               `json:"channels"`
	Disposition  map[string]int    `json:"disposition"`
	Tags         map[string]string `json:"tags"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Parse(output)
}

// Parse decodes an ffprobe JSON document.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return len(r.StreamsOfType("video"))
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return len(r.StreamsOfType("audio"))
}

// StreamsOfType returns the streams whose codec_type matches, in container order.
func (r Result) StreamsOfType(codecType string) []Stream {
	var out []Stream
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			out = append(out, stream)
		}
	}
	return out
}

// FirstVideoStream returns the first video stream, skipping attached cover art.
func (r Result) FirstVideoStream() (Stream, bool) {
	for _, stream := range r.StreamsOfType("video") {
		if stream.Disposition["attached_pic"] == 1 {
			continue
		}
		return stream, true
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// BitRate returns the container bitrate in bits per second, or 0 when unavailable.
func (r Result) BitRate() int64 {
	rate := parseFloat(r.Format.BitRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int64(rate)
}

// FrameRate returns the average frame rate, falling back to r_frame_rate.
// Zero means the rate is unknown.
func (s Stream) FrameRate() float64 {
	if fps := parseRational(s.AvgFrameRate); fps > 0 {
		return fps
	}
	return parseRational(s.RFrameRate)
}

// FrameCount returns nb_frames when the container records it.
func (s Stream) FrameCount() int64 {
	count := parseFloat(s.NBFrames)
	if math.IsNaN(count) || count < 0 {
		return 0
	}
	return int64(count)
}

// DurationSeconds returns the stream duration, or 0 when absent or invalid.
func (s Stream) DurationSeconds() float64 {
	d := parseFloat(s.Duration)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

// SampleRateHz returns the audio sample rate, or 0 when absent.
func (s Stream) SampleRateHz() int {
	rate := parseFloat(s.SampleRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int(rate)
}

// IsDefault reports whether the stream carries the default disposition flag.
func (s Stream) IsDefault() bool {
	return s.Disposition["default"] == 1
}

func parseRational(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	num, den, found := strings.Cut(cleaned, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
