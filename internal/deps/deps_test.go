package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestCheckMediaToolsExplicitPath(t *testing.T) {
	tmp := t.TempDir()
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	probePath := filepath.Join(tmp, executableName("ffprobe"))
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(ffmpegPath, script, 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	if err := os.WriteFile(probePath, script, 0o644); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}

	statuses := CheckMediaTools(ffmpegPath, probePath)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available || statuses[0].Command != ffmpegPath {
		t.Fatalf("expected explicit ffmpeg to be available, got %#v", statuses[0])
	}
	if runtime.GOOS != "windows" && statuses[1].Available {
		t.Fatalf("expected non-executable ffprobe to be unavailable, got %#v", statuses[1])
	}
}

func TestCheckMediaToolsPathLookup(t *testing.T) {
	binDir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	ffmpegPath := filepath.Join(binDir, executableName("ffmpeg"))
	if err := os.WriteFile(ffmpegPath, script, 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	statuses := CheckMediaTools("ffmpeg", "ffprobe")
	if !statuses[0].Available {
		t.Fatalf("expected ffmpeg on PATH, got detail %q", statuses[0].Detail)
	}
	if statuses[0].Command != ffmpegPath {
		t.Fatalf("expected resolved command %q, got %q", ffmpegPath, statuses[0].Command)
	}
	if statuses[1].Available {
		t.Fatal("expected ffprobe to be missing")
	}
	if statuses[1].Detail == "" {
		t.Fatal("expected detail message when ffprobe is unavailable")
	}
}

func TestCheckMediaToolsUnconfigured(t *testing.T) {
	statuses := CheckMediaTools("", " ")
	for _, status := range statuses {
		if status.Available || status.Detail != "command not configured" {
			t.Fatalf("unexpected status for empty command: %#v", status)
		}
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
