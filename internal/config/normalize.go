package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDetection()
	c.normalizeMedia()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("DEEPSCAN_MODEL_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ModelDir = value
	}
	fields := []struct {
		key   string
		value *string
		def   string
	}{
		{"paths.model_dir", &c.Paths.ModelDir, defaultModelDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.report_dir", &c.Paths.ReportDir, defaultReportDir},
		{"paths.upload_dir", &c.Paths.UploadDir, defaultUploadDir},
		{"paths.history_db", &c.Paths.HistoryDB, defaultHistoryDB},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeDetection() {
	if value, ok := os.LookupEnv("DEEPSCAN_DEVICE"); ok && strings.TrimSpace(value) != "" {
		c.Detection.Device = value
	}
	c.Detection.Device = strings.ToLower(strings.TrimSpace(c.Detection.Device))
	if c.Detection.Device == "" {
		c.Detection.Device = defaultDevice
	}
	if c.Detection.MaxFrames < 0 {
		c.Detection.MaxFrames = 0
	}
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("DEEPSCAN_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
