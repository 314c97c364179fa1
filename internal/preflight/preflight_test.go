package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deepscan/internal/config"
	"deepscan/internal/models"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableDirectory(t *testing.T) {
	result := CheckReadableDirectory("models", t.TempDir())
	if !result.Passed || !strings.Contains(result.Detail, "read ok") {
		t.Fatalf("expected readable dir to pass, got %+v", result)
	}
}

func TestCheckCheckpoints(t *testing.T) {
	dir := t.TempDir()
	result := CheckCheckpoints(dir)
	if result.Passed {
		t.Fatal("expected failure with no checkpoints")
	}
	if !strings.Contains(result.Detail, "0/4") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}

	for _, kind := range models.Kinds() {
		if err := os.WriteFile(models.CheckpointPath(dir, kind), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	result = CheckCheckpoints(dir)
	if !result.Passed {
		t.Fatalf("expected pass with every checkpoint present, got %s", result.Detail)
	}
}

func TestCheckCheckpoints_ListsMissing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(models.CheckpointPath(dir, models.KindDeepfakeClassifier), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckCheckpoints(dir)
	if result.Passed {
		t.Fatal("expected failure with partial checkpoints")
	}
	if !strings.Contains(result.Detail, "1/4") || !strings.Contains(result.Detail, models.KindGANDetector) {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
	if strings.Contains(result.Detail, models.KindDeepfakeClassifier) {
		t.Fatalf("present checkpoint listed as missing: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ModelDir = filepath.Join(base, "models")
	cfg.Paths.ReportDir = filepath.Join(base, "reports")
	cfg.Paths.UploadDir = filepath.Join(base, "uploads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.HistoryDB = filepath.Join(base, "history", "history.db")
	cfg.Media.FFmpegBinary = filepath.Join(base, "missing-ffmpeg")
	cfg.Media.FFprobeBinary = filepath.Join(base, "missing-ffprobe")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), &cfg)
	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	for _, want := range []string{"Model directory", "Checkpoints", "Report directory", "Upload directory", "Log directory", "History directory", "FFmpeg", "FFprobe"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("missing check %q in %v", want, results)
		}
	}
	if names["Model directory"].Passed {
		t.Fatal("model directory is not created and should fail")
	}
	if !names["Report directory"].Passed || !names["History directory"].Passed {
		t.Fatalf("expected created directories to pass: %+v", results)
	}
	if names["FFmpeg"].Passed {
		t.Fatal("expected missing ffmpeg to fail")
	}
	if len(Failed(results)) < 3 {
		t.Fatalf("expected at least three failures, got %v", Failed(results))
	}
}

func TestRunAll_SkipsHistoryWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.History.Enabled = false
	cfg.Paths.ModelDir = t.TempDir()
	for _, r := range RunAll(context.Background(), &cfg) {
		if r.Name == "History directory" {
			t.Fatal("history check should be skipped when disabled")
		}
	}
}
