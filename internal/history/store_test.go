package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"deepscan/internal/detection"
	"deepscan/internal/history"
	"deepscan/internal/testsupport"
)

func TestSaveAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	result := detection.NewResult(detection.MediaVideo, "clip.mp4")
	result.AddPrediction("frame_analysis", true, 0.8, map[string]any{"fake_frame_ratio": 0.6})
	result.Metadata["fps"] = 30.0

	saved, err := store.Save(ctx, "run-1", result, "abc123")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !saved.IsDeepfake || saved.Confidence != 0.8 {
		t.Fatalf("unexpected saved verdict: %+v", saved)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}
	if got.Filename != "clip.mp4" || got.MediaType != "video" || got.SHA256 != "abc123" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be parsed")
	}
	rebuilt := got.Result()
	isFake, conf, ok := rebuilt.Prediction("frame_analysis")
	if !ok || !isFake || conf != 0.8 {
		t.Fatalf("prediction lost in round trip: %v %v %v", ok, isFake, conf)
	}
	if rebuilt.Metadata["fps"] != 30.0 {
		t.Fatalf("metadata lost in round trip: %v", rebuilt.Metadata)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil record, got %+v", got)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.SaveRun(t, store, "a", "a.png", false, 0.1)
	testsupport.SaveRun(t, store, "b", "b.png", true, 0.9)
	testsupport.SaveRun(t, store, "c", "c.png", false, 0.2)

	all, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("unexpected order: %s %s %s", all[0].ID, all[1].ID, all[2].ID)
	}

	limited, err := store.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 records, got %d", len(limited))
	}
}

func TestFindBySHAReturnsLatest(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := detection.NewResult(detection.MediaImage, "x.png")
	first.AddPrediction("deepfake_classifier", false, 0.3, nil)
	if _, err := store.Save(ctx, "first", first, "deadbeef"); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	second := detection.NewResult(detection.MediaImage, "x.png")
	second.AddPrediction("deepfake_classifier", true, 0.7, nil)
	if _, err := store.Save(ctx, "second", second, "deadbeef"); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, err := store.FindBySHA(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("FindBySHA: %v", err)
	}
	if got == nil || got.ID != "second" {
		t.Fatalf("expected latest run, got %+v", got)
	}

	missing, err := store.FindBySHA(ctx, "other")
	if err != nil || missing != nil {
		t.Fatalf("expected no match, got %+v err=%v", missing, err)
	}
}

func TestFailedRunKeepsErrorMessage(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	result := detection.NewResult(detection.MediaAudio, "broken.wav")
	result.SetError("Failed to load audio")

	saved, err := store.Save(context.Background(), "failed", result, "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.IsDeepfake || saved.Confidence != 0 {
		t.Fatalf("failed run should be authentic with zero confidence: %+v", saved)
	}
	got, err := store.Get(context.Background(), "failed")
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.Error != "Failed to load audio" {
		t.Fatalf("unexpected error message %q", got.Error)
	}
}

func TestRemoveClearAndStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.SaveRun(t, store, "a", "a.png", true, 0.9)
	testsupport.SaveRun(t, store, "b", "b.png", false, 0.1)

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 || stats.Deepfakes != 1 || stats.ByType["image"] != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	removed, err := store.Remove(ctx, "a")
	if err != nil || !removed {
		t.Fatalf("Remove: %v %v", removed, err)
	}
	removed, err = store.Remove(ctx, "a")
	if err != nil || removed {
		t.Fatalf("second Remove should report false: %v %v", removed, err)
	}

	cleared, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared row, got %d", cleared)
	}
}

func TestSaveRejectsEmptyRunID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Save(context.Background(), " ", detection.NewResult(detection.MediaImage, "a.png"), ""); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
