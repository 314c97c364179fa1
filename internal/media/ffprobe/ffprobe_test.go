package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Disposition: map[string]int{"attached_pic": 1}, Index: 0},
			{CodecType: "video", Index: 1},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 2 {
		t.Fatalf("expected 2 video streams, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if stream, ok := result.FirstVideoStream(); !ok || stream.Index != 1 {
		t.Fatalf("expected cover art to be skipped, got %+v %v", stream, ok)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestStreamFrameRate(t *testing.T) {
	tests := []struct {
		avg, r string
		want   float64
	}{
		{"30000/1001", "30/1", 30000.0 / 1001.0},
		{"0/0", "25/1", 25},
		{"", "", 0},
		{"24", "", 24},
		{"1/0", "bad", 0},
	}
	for _, tt := range tests {
		got := Stream{AvgFrameRate: tt.avg, RFrameRate: tt.r}.FrameRate()
		if math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("FrameRate(%q,%q) = %v, want %v", tt.avg, tt.r, got, tt.want)
		}
	}
}

func TestStreamCounters(t *testing.T) {
	s := Stream{NBFrames: "240", SampleRate: "44100", Duration: "N/A"}
	if s.FrameCount() != 240 {
		t.Fatalf("unexpected frame count: %d", s.FrameCount())
	}
	if s.SampleRateHz() != 44100 {
		t.Fatalf("unexpected sample rate: %d", s.SampleRateHz())
	}
	if s.DurationSeconds() != 0 {
		t.Fatalf("expected unknown duration to be 0, got %v", s.DurationSeconds())
	}
}

func TestParseDecodesDocument(t *testing.T) {
	doc := []byte(`{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":640,"height":360,"avg_frame_rate":"25/1","nb_frames":"50","disposition":{"default":1}}],"format":{"duration":"2.0","size":"2048"}}`)
	result, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	stream, ok := result.FirstVideoStream()
	if !ok {
		t.Fatal("expected video stream")
	}
	if stream.Width != 640 || stream.Height != 360 || stream.FrameRate() != 25 || stream.FrameCount() != 50 || !stream.IsDefault() {
		t.Fatalf("unexpected stream: %+v", stream)
	}
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
