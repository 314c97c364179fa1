package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"deepscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ModelDir = filepath.Join(base, "models")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ReportDir = filepath.Join(base, "reports")
	cfgVal.Paths.UploadDir = filepath.Join(base, "uploads")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "history", "history.db")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDetection mutates the detection policy on the test config.
func WithDetection(fn func(*config.Detection)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Detection)
	}
}

// WithHistoryDisabled turns off result persistence.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithStubbedBinaries writes stub executables that exit 0 for the provided
// names and prepends them to PATH. If names is empty, ffmpeg and ffprobe are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			StubBinary(b.t, binDir, name, "exit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithBinaryScripts installs stub ffmpeg and ffprobe scripts and points the
// config's media section at them.
func WithBinaryScripts(ffmpegScript, ffprobeScript string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.Media.FFmpegBinary = StubBinary(b.t, binDir, "ffmpeg", ffmpegScript)
		b.cfg.Media.FFprobeBinary = StubBinary(b.t, binDir, "ffprobe", ffprobeScript)
	}
}

// StubBinary writes an executable shell script named name into dir and returns
// its path. The body is appended after a /bin/sh shebang.
func StubBinary(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ModelDir)
}

// WithKeepUploads retains uploaded files after analysis.
func WithKeepUploads() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.KeepUploads = true
	}
}
