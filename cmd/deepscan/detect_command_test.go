package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deepscan/internal/api"
	"deepscan/internal/detection"
	"deepscan/internal/testsupport"
)

func TestDetectJSONRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writePNG(t, "face.png")

	out, _, err := runCLI(t, []string{"detect", "--json", path}, env.configPath)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var view api.Detection
	decodeJSON(t, out, &view)
	if view.Status != "success" || view.MediaType != "image" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if len(view.ModelPredictions) != len(detection.ImageModels) {
		t.Fatalf("expected %d predictions, got %v", len(detection.ImageModels), view.ModelPredictions)
	}
	if view.RunID == "" || len(view.SHA256) != 64 {
		t.Fatalf("expected run id and digest, got %q %q", view.RunID, view.SHA256)
	}

	out, _, err = runCLI(t, []string{"history", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var entries []api.HistoryEntry
	decodeJSON(t, out, &entries)
	if len(entries) != 1 || entries[0].ID != view.RunID {
		t.Fatalf("expected recorded run %s, got %+v", view.RunID, entries)
	}
}

func TestDetectNoHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writePNG(t, "face.png")

	if _, _, err := runCLI(t, []string{"detect", "--json", "--no-history", path}, env.configPath); err != nil {
		t.Fatalf("detect: %v", err)
	}
	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No recorded runs")
}

func TestDetectWritesReports(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writePNG(t, "face.png")

	out, _, err := runCLI(t, []string{"detect", "--forensics", "--report", "json,html", path}, env.configPath)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	requireContains(t, out, "Verdict:")
	requireContains(t, out, "Deepfake Classifier")
	requireContains(t, out, "Forensic flags:")

	entries, err := os.ReadDir(env.cfg.Paths.ReportDir)
	if err != nil {
		t.Fatalf("read report dir: %v", err)
	}
	var exts []string
	for _, entry := range entries {
		exts = append(exts, filepath.Ext(entry.Name()))
	}
	joined := strings.Join(exts, " ")
	if len(entries) != 2 || !strings.Contains(joined, ".json") || !strings.Contains(joined, ".html") {
		t.Fatalf("expected json and html reports, got %v", exts)
	}
}

func TestDetectRejectsUnknownMediaType(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writePNG(t, "face.png")

	_, _, err := runCLI(t, []string{"detect", "--type", "hologram", path}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unsupported media type") {
		t.Fatalf("expected media type error, got %v", err)
	}
}

func TestDetectUnresolvableExtension(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "notes.txt")
	testsupport.WriteFile(t, path, 16)

	_, _, err := runCLI(t, []string{"detect", path}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "cannot determine media type") {
		t.Fatalf("expected resolve error, got %v", err)
	}
}

func TestParseReportFormatsDeduplicates(t *testing.T) {
	formats, err := parseReportFormats([]string{"json", "JSON", " ", "htm", "yml"})
	if err != nil {
		t.Fatalf("parseReportFormats: %v", err)
	}
	if len(formats) != 3 || formats[0] != "json" || formats[1] != "html" || formats[2] != "yaml" {
		t.Fatalf("unexpected formats %v", formats)
	}
	if _, err := parseReportFormats([]string{"pdf"}); err == nil {
		t.Fatal("expected error for pdf")
	}
}
