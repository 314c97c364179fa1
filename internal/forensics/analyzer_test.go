package forensics_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"deepscan/internal/forensics"
	"deepscan/internal/logging"
	"deepscan/internal/services"
	"deepscan/internal/testsupport"
)

func TestAnalyzeImageProducesEverySection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gradient.png")
	testsupport.WritePNG(t, path, testsupport.GradientImage(64, 48))

	report, err := forensics.NewAnalyzer(logging.NewNop()).AnalyzeImage(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if report.FileProperties == nil || report.FileProperties.Filename != "gradient.png" {
		t.Fatalf("unexpected file properties: %+v", report.FileProperties)
	}
	if report.FileHeaders == nil || report.FileHeaders.DetectedExtension != "png" || report.FileHeaders.ExtensionMismatch {
		t.Fatalf("unexpected headers: %+v", report.FileHeaders)
	}
	if report.FileHeaders.MagicASCII[1:4] != "PNG" {
		t.Fatalf("unexpected ascii header: %q", report.FileHeaders.MagicASCII)
	}
	if report.Compression == nil || report.Noise == nil || report.Color == nil ||
		report.Edges == nil || report.Lighting == nil || report.Shadow == nil {
		t.Fatalf("missing pixel sections: %+v", report)
	}
	if report.Metadata == nil {
		t.Fatal("metadata map should never be nil")
	}
}

func TestAnalyzeImageRecordsDecodeFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	report, err := forensics.NewAnalyzer(nil).AnalyzeImage(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if _, ok := report.Errors["image"]; !ok {
		t.Fatalf("expected image error, got %v", report.Errors)
	}
	if report.Compression != nil {
		t.Fatal("pixel heuristics should be skipped")
	}
	if report.FileProperties == nil || report.FileHeaders == nil {
		t.Fatal("file level sections should still be present")
	}
}

func TestAnalyzeImageMissingFile(t *testing.T) {
	_, err := forensics.NewAnalyzer(nil).AnalyzeImage(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSniffHeaderFlagsExtensionMismatch(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R', 0, 0}
	got := forensics.SniffHeader(png, ".jpg")
	if got.MagicBytes != "89504e470d0a1a0a0000000d49484452" {
		t.Fatalf("magic bytes = %q", got.MagicBytes)
	}
	if got.MagicASCII != ".PNG........IHDR" {
		t.Fatalf("magic ascii = %q", got.MagicASCII)
	}
	if got.DetectedExtension != "png" || !got.ExtensionMismatch {
		t.Fatalf("expected png mismatch: %+v", got)
	}
	if forensics.SniffHeader(png, ".PNG").ExtensionMismatch {
		t.Fatal("matching extension flagged")
	}
	if forensics.SniffHeader([]byte("plain text"), ".jpg").ExtensionMismatch {
		t.Fatal("unknown type must not be flagged")
	}
}

func TestReportFlags(t *testing.T) {
	report := &forensics.Report{
		Noise:  &forensics.NoiseAnalysis{UnnaturalNoise: true},
		Shadow: &forensics.ShadowAnalysis{},
	}
	if got := report.Flags(); !slices.Equal(got, []string{"unnatural_noise"}) {
		t.Fatalf("flags = %v", got)
	}
}
