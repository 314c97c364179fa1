package detection_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"deepscan/internal/config"
	"deepscan/internal/detection"
	"deepscan/internal/models"
	"deepscan/internal/services"
	"deepscan/internal/testsupport"
)

func newTestEngine(frames detection.FrameSource) *detection.Engine {
	reg := newRegistry(map[string]models.Scorer{
		models.KindDeepfakeClassifier: constScorer(0.8),
		models.KindGANDetector:        constScorer(0.6),
		models.KindFacialForensics:    constScorer(0.2),
	})
	policy := detection.DefaultPolicy()
	policy.InputSize = 16
	if frames == nil {
		frames = &fakeFrames{}
	}
	return detection.New(detection.Options{
		Registry:  reg,
		Frames:    frames,
		Waveforms: &fakeWaveforms{},
		Policy:    policy,
	})
}

func TestResolveMediaType(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]detection.MediaType{
		"photo.JPG":  detection.MediaImage,
		"scan.tiff":  detection.MediaImage,
		"clip.mkv":   detection.MediaVideo,
		"voice.flac": detection.MediaAudio,
		"notes.txt":  detection.MediaUnknown,
	}
	for name, want := range cases {
		path := filepath.Join(dir, name)
		testsupport.WriteFile(t, path, 4)
		if got := detection.ResolveMediaType(path); got != want {
			t.Fatalf("ResolveMediaType(%s) = %q, want %q", name, got, want)
		}
	}
	if got := detection.ResolveMediaType(filepath.Join(dir, "missing.png")); got != detection.MediaUnknown {
		t.Fatalf("missing file resolved to %q", got)
	}
}

func TestParseMediaType(t *testing.T) {
	if mt, err := detection.ParseMediaType(" Video "); err != nil || mt != detection.MediaVideo {
		t.Fatalf("ParseMediaType = %q %v", mt, err)
	}
	if mt, err := detection.ParseMediaType(""); err != nil || mt != "" {
		t.Fatalf("empty media type = %q %v", mt, err)
	}
	if _, err := detection.ParseMediaType("hologram"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDetectImageConsensus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portrait.png")
	testsupport.WritePNG(t, path, testsupport.GradientImage(20, 20))

	result, err := newTestEngine(nil).Detect(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.MediaType != detection.MediaImage || result.Len() != 3 {
		t.Fatalf("unexpected result: %s %v", result.MediaType, result.Names())
	}
	isFake, confidence := result.Consensus()
	if !isFake {
		t.Fatal("two of three fake votes should be a deepfake")
	}
	if !approxEqual(confidence, (0.8+0.6+0.2)/3) {
		t.Fatalf("confidence = %v", confidence)
	}
}

func TestDetectUnknownTypeIsTerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	testsupport.WriteFile(t, path, 10)
	result, err := newTestEngine(nil).Detect(context.Background(), path, "")
	if !errors.Is(err, services.ErrUnsupportedMedia) {
		t.Fatalf("expected ErrUnsupportedMedia, got %v", err)
	}
	if result != nil {
		t.Fatal("unknown media must not produce a result")
	}
}

func TestDetectHonoursDeclaredType(t *testing.T) {
	frames := &fakeFrames{frames: solidFrames(2)}
	result, err := newTestEngine(frames).Detect(context.Background(), "no-extension", detection.MediaVideo)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.MediaType != detection.MediaVideo {
		t.Fatalf("media type = %q", result.MediaType)
	}
	if _, _, ok := result.Prediction("frame_analysis"); !ok {
		t.Fatal("frame_analysis missing")
	}
}

func TestBatchDetectIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.png")
	testsupport.WritePNG(t, ok, testsupport.GradientImage(12, 12))
	missing := filepath.Join(dir, "missing.jpg")

	results := newTestEngine(nil).BatchDetect(context.Background(), []string{ok, missing})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Filename != ok || results[0].MediaType != detection.MediaImage || results[0].Len() != 3 {
		t.Fatalf("first result damaged: %+v", results[0].Summary())
	}
	if results[1].Filename != missing || results[1].MediaType != detection.MediaUnknown {
		t.Fatalf("second result = %+v", results[1].Summary())
	}
	if results[1].Error() == "" {
		t.Fatal("failure result must carry an error")
	}
}

func TestBatchDetectRecoversPanics(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	testsupport.WriteFile(t, clip, 16)
	img := filepath.Join(dir, "after.png")
	testsupport.WritePNG(t, img, testsupport.GradientImage(8, 8))

	results := newTestEngine(&fakeFrames{panics: true}).BatchDetect(context.Background(), []string{clip, img})
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].MediaType != detection.MediaUnknown || results[0].Error() == "" {
		t.Fatalf("panicking item = %+v", results[0].Summary())
	}
	if results[1].MediaType != detection.MediaImage {
		t.Fatalf("batch did not continue: %+v", results[1].Summary())
	}
}

func TestFailureResult(t *testing.T) {
	r := detection.FailureResult("x.bin", services.Wrap(services.ErrUnsupportedMedia, "detection", "resolve", "nope", nil))
	if r.MediaType != detection.MediaUnknown || r.Metadata["error_code"] != "UNSUPPORTED_MEDIA" {
		t.Fatalf("unexpected failure result: %+v", r.Summary())
	}
	if isFake, conf := r.Consensus(); isFake || conf != 0 {
		t.Fatal("failure result consensus must be (false, 0)")
	}
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDetection(func(d *config.Detection) {
		d.FakeFrameRatio = 0.6
		d.FrameSampleRate = 10
		d.AudioConfidence = 0.25
	}))
	p := detection.PolicyFromConfig(cfg)
	if p.FakeFrameRatio != 0.6 || p.FrameSampleRate != 10 || p.AudioConfidence != 0.25 {
		t.Fatalf("policy = %+v", p)
	}
	if p.MaxUploadBytes != 500*1024*1024 || p.InputSize != 224 {
		t.Fatalf("defaults lost: %+v", p)
	}
}

func TestNewFromConfigLoadsRegistry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.ModelDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	engine, err := detection.NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if engine.Registry().Len() != len(models.Kinds()) {
		t.Fatalf("registered %v", engine.Registry().List())
	}
}
