package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	ModelDir  string `toml:"model_dir"`
	LogDir    string `toml:"log_dir"`
	ReportDir string `toml:"report_dir"`
	UploadDir string `toml:"upload_dir"`
	HistoryDB string `toml:"history_db"`
	APIBind   string `toml:"api_bind"`
}

// Detection holds the decision policy applied by the analyzers.
type Detection struct {
	ConfidenceThreshold      float64 `toml:"confidence_threshold"`
	ConsensusThreshold       float64 `toml:"consensus_threshold"`
	FrameSampleRate          int     `toml:"frame_sample_rate"`
	FakeFrameRatio           float64 `toml:"fake_frame_ratio"`
	InputSize                int     `toml:"input_size"`
	AudioSampleRate          int     `toml:"audio_sample_rate"`
	AudioConfidence          float64 `toml:"audio_confidence"`
	SpectralEntropyThreshold float64 `toml:"spectral_entropy_threshold"`
	// MaxFrames caps the number of sampled video frames; 0 keeps every sample.
	MaxFrames int    `toml:"max_frames"`
	Device    string `toml:"device"`
}

// Media names the external decoders.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Upload contains limits for files received over HTTP.
type Upload struct {
	MaxFileSizeMB int  `toml:"max_file_size_mb"`
	KeepUploads   bool `toml:"keep_uploads"`
}

// History toggles the local result database.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for deepscan.
//
// Configuration sections by subsystem:
//   - Paths: model checkpoints, reports, uploads, history database, API bind
//   - Detection: thresholds and sampling policy shared by every analyzer
//   - Media: ffmpeg/ffprobe executables used to decode video and audio
//   - Upload: HTTP upload limits
//   - History: result persistence
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Detection Detection `toml:"detection"`
	Media     Media     `toml:"media"`
	Upload    Upload    `toml:"upload"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("deepscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the writable directories used by the CLI and API.
// The model directory is read-only input and is never created.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.ReportDir, c.Paths.UploadDir}
	if c.History.Enabled && c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for frame and PCM extraction.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Media.FFmpegBinary) == "" {
		return defaultFFmpegBinary
	}
	return c.Media.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Media.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return c.Media.FFprobeBinary
}

// MaxUploadBytes converts the upload limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxFileSizeMB) * 1024 * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
