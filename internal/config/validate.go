package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDetection() error {
	d := c.Detection
	if err := ensureUnitInterval(map[string]float64{
		"detection.confidence_threshold": d.ConfidenceThreshold,
		"detection.consensus_threshold":  d.ConsensusThreshold,
		"detection.fake_frame_ratio":     d.FakeFrameRatio,
		"detection.audio_confidence":     d.AudioConfidence,
	}); err != nil {
		return err
	}
	if err := ensurePositive(map[string]int{
		"detection.frame_sample_rate": d.FrameSampleRate,
		"detection.input_size":        d.InputSize,
		"detection.audio_sample_rate": d.AudioSampleRate,
	}); err != nil {
		return err
	}
	if d.SpectralEntropyThreshold < 0 {
		return errors.New("detection.spectral_entropy_threshold must be non-negative")
	}
	switch d.Device {
	case "cpu", "cuda":
	default:
		return fmt.Errorf("detection.device must be cpu or cuda (got %q)", d.Device)
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxFileSizeMB <= 0 {
		return errors.New("upload.max_file_size_mb must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
}

func ensureUnitInterval(values map[string]float64) error {
	for _, key := range sortedKeys(values) {
		if v := values[key]; v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
	}
	return nil
}

func ensurePositive(values map[string]int) error {
	for _, key := range sortedKeys(values) {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func sortedKeys[V any](values map[string]V) []string {
	return slices.Sorted(maps.Keys(values))
}
