package testsupport

import (
	"context"
	"testing"

	"deepscan/internal/config"
	"deepscan/internal/detection"
	"deepscan/internal/history"
)

// MustOpenStore opens the history store configured for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveRun stores a single-model result under runID.
func SaveRun(t testing.TB, store *history.Store, runID, filename string, fake bool, confidence float64) *history.Record {
	t.Helper()

	result := detection.NewResult(detection.MediaImage, filename)
	result.AddPrediction("deepfake_classifier", fake, confidence, nil)
	record, err := store.Save(context.Background(), runID, result, "")
	if err != nil {
		t.Fatalf("store.Save: %v", err)
	}
	return record
}
