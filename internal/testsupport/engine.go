package testsupport

import (
	"testing"

	"deepscan/internal/detection"
	"deepscan/internal/logging"
	"deepscan/internal/models"
)

// NewImageEngine builds an engine whose detectors run with untrained
// weights. It has no frame or waveform source, so only images can be analyzed.
func NewImageEngine(t testing.TB) *detection.Engine {
	t.Helper()

	registry := models.NewRegistry(models.DeviceCPU, logging.NewNop())
	registry.LoadAll(t.TempDir())
	return detection.New(detection.Options{
		Registry: registry,
		Policy:   detection.DefaultPolicy(),
		Logger:   logging.NewNop(),
	})
}
