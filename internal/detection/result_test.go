package detection_test

import (
	"encoding/json"
	"slices"
	"testing"

	"deepscan/internal/detection"
)

func TestConsensusEmptyIsNotDeepfake(t *testing.T) {
	r := detection.NewResult(detection.MediaImage, "x.png")
	isFake, confidence := r.Consensus()
	if isFake || confidence != 0 {
		t.Fatalf("empty consensus = (%v, %v), want (false, 0)", isFake, confidence)
	}
}

func TestConsensusTieIsNotDeepfake(t *testing.T) {
	r := detection.NewResult(detection.MediaImage, "x.png")
	r.AddPrediction("a", true, 0.75, nil)
	r.AddPrediction("b", true, 0.75, nil)
	r.AddPrediction("c", false, 0.25, nil)
	r.AddPrediction("d", false, 0.25, nil)
	isFake, confidence := r.Consensus()
	if isFake {
		t.Fatal("2-2 tie must not be a deepfake")
	}
	if confidence != 0.5 {
		t.Fatalf("mean confidence = %v, want 0.5", confidence)
	}

	r.AddPrediction("e", true, 0.5, nil)
	if isFake, _ := r.Consensus(); !isFake {
		t.Fatal("3 of 5 votes should be a deepfake")
	}
}

func TestConsensusThresholdIsConfigurable(t *testing.T) {
	r := detection.NewResult(detection.MediaImage, "x.png")
	r.SetConsensusThreshold(0.8)
	r.AddPrediction("a", true, 0.9, nil)
	r.AddPrediction("b", true, 0.9, nil)
	r.AddPrediction("c", true, 0.9, nil)
	r.AddPrediction("d", false, 0.1, nil)
	if isFake, _ := r.Consensus(); isFake {
		t.Fatal("0.75 vote share should not exceed a 0.8 threshold")
	}
}

func TestAddPredictionKeepsKeysAligned(t *testing.T) {
	r := detection.NewResult(detection.MediaVideo, "clip.mp4")
	r.AddPrediction("first", false, 0.1, nil)
	r.AddPrediction("second", true, 0.7, map[string]any{"k": 1})
	r.AddPrediction("first", true, 0.95, nil)

	if got := r.Names(); !slices.Equal(got, []string{"first", "second"}) {
		t.Fatalf("names = %v", got)
	}
	preds, confs := r.Predictions(), r.Confidences()
	if len(preds) != len(confs) {
		t.Fatalf("key sets differ: %v %v", preds, confs)
	}
	for name := range preds {
		if _, ok := confs[name]; !ok {
			t.Fatalf("confidence missing for %q", name)
		}
	}
	isFake, confidence, ok := r.Prediction("first")
	if !ok || !isFake || confidence != 0.95 {
		t.Fatalf("replacement not applied: %v %v %v", isFake, confidence, ok)
	}
	if _, ok := r.AnalysisDetails["second"]; !ok {
		t.Fatal("details not stored")
	}
	if _, ok := r.AnalysisDetails["first"]; ok {
		t.Fatal("nil details must not be stored")
	}
}

func TestResultJSONShape(t *testing.T) {
	r := detection.NewResult(detection.MediaAudio, "voice.wav")
	r.AddPrediction("audio_analysis", true, 0.5, nil)
	r.Metadata["sample_rate"] = 16000

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"filename", "media_type", "is_deepfake", "average_confidence", "model_predictions", "model_confidences", "metadata", "analysis_details"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	if decoded["media_type"] != "audio" || decoded["is_deepfake"] != true {
		t.Fatalf("unexpected values: %s", data)
	}
}

func TestFromSummaryRestoresPredictions(t *testing.T) {
	r := detection.NewResult(detection.MediaImage, "a.png")
	r.AddPrediction("gan_detector", true, 0.8, nil)
	r.AddPrediction("deepfake_classifier", false, 0.3, nil)
	back := detection.FromSummary(r.Summary())
	if !slices.Equal(back.Names(), []string{"deepfake_classifier", "gan_detector"}) {
		t.Fatalf("names = %v", back.Names())
	}
	_, wantConf := r.Consensus()
	if _, got := back.Consensus(); got != wantConf {
		t.Fatalf("confidence = %v, want %v", got, wantConf)
	}
}
