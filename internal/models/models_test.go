package models_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"deepscan/internal/logging"
	"deepscan/internal/media/raster"
	"deepscan/internal/models"
	"deepscan/internal/services"
)

type fixedScorer struct {
	value  float64
	device models.Device
}

func (f *fixedScorer) Score(models.Tensor) (float64, error) { return f.value, nil }

func (f *fixedScorer) SetDevice(d models.Device) { f.device = d }

func sampleTensor(size int) models.Tensor {
	img := raster.New(size*2, size)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.Set(x, y, uint8(x*7), uint8(y*5), uint8((x+y)*3))
		}
	}
	return models.TensorFromImage(img, size)
}

func TestTensorFromImageNormalises(t *testing.T) {
	img := raster.New(4, 4)
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	tensor := models.TensorFromImage(img, 8)
	if tensor.Channels != 3 || tensor.Height != 8 || tensor.Width != 8 {
		t.Fatalf("unexpected shape: %d %d %d", tensor.Channels, tensor.Height, tensor.Width)
	}
	for i, v := range tensor.Data {
		if v != 1 {
			t.Fatalf("value %d = %v, want 1", i, v)
		}
	}
}

func TestNetworkScoresAreDeterministicProbabilities(t *testing.T) {
	tensor := sampleTensor(32)
	for _, kind := range models.Kinds() {
		a, err := models.NewNetwork(kind)
		if err != nil {
			t.Fatalf("NewNetwork(%s): %v", kind, err)
		}
		b, _ := models.NewNetwork(kind)
		sa, err := a.Score(tensor)
		if err != nil {
			t.Fatalf("%s score: %v", kind, err)
		}
		sb, _ := b.Score(tensor)
		if sa != sb {
			t.Fatalf("%s not deterministic: %v vs %v", kind, sa, sb)
		}
		if sa < 0 || sa > 1 || math.IsNaN(sa) {
			t.Fatalf("%s score out of range: %v", kind, sa)
		}
		if a.Parameters() == 0 {
			t.Fatalf("%s reports no parameters", kind)
		}
	}
}

func TestNewNetworkRejectsUnknownKind(t *testing.T) {
	if _, err := models.NewNetwork("vision_transformer"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScoreRejectsBadTensor(t *testing.T) {
	n, _ := models.NewNetwork(models.KindDeepfakeClassifier)
	if _, err := n.Score(models.NewTensor(1, 4, 4)); err == nil {
		t.Fatal("expected shape error")
	}
}

func TestDetectFaceOnlyForFaceModel(t *testing.T) {
	tensor := sampleTensor(16)
	face, _ := models.NewNetwork(models.KindFaceDetection)
	got, err := face.DetectFace(tensor)
	if err != nil {
		t.Fatalf("DetectFace: %v", err)
	}
	for _, v := range []float64{got.Confidence, got.X, got.Y, got.Width, got.Height} {
		if v <= 0 || v >= 1 {
			t.Fatalf("face output outside (0,1): %+v", got)
		}
	}
	classifier, _ := models.NewNetwork(models.KindDeepfakeClassifier)
	if _, err := classifier.DetectFace(tensor); err == nil {
		t.Fatal("classifier should not detect faces")
	}
}

func TestCheckpointRoundTripChangesScores(t *testing.T) {
	dir := t.TempDir()
	tensor := sampleTensor(16)

	source, _ := models.NewNetwork(models.KindGANDetector)
	path := models.CheckpointPath(dir, models.KindGANDetector)
	if err := models.SaveCheckpoint(path, source); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	target, _ := models.NewNetwork(models.KindGANDetector)
	if err := target.LoadCheckpoint(path); err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	want, _ := source.Score(tensor)
	got, _ := target.Score(tensor)
	if got != want {
		t.Fatalf("score after reload = %v, want %v", got, want)
	}
}

func TestLoadCheckpointAcceptsBareStateDict(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bare.json")
	// Zero weights with a bias that strongly favours the fake class.
	hidden := make([][]float64, 32)
	for i := range hidden {
		hidden[i] = make([]float64, 54)
	}
	out := [][]float64{make([]float64, 32), make([]float64, 32)}
	state := map[string]any{
		"fc1.weight": hidden,
		"fc1.bias":   make([]float64, 32),
		"fc2.weight": out,
		"fc2.bias":   []float64{0, 10},
	}
	writeJSON(t, path, state)

	n, _ := models.NewNetwork(models.KindGANDetector)
	if err := n.LoadCheckpoint(path); err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	score, err := n.Score(sampleTensor(8))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score < 0.99 {
		t.Fatalf("score = %v, want close to 1", score)
	}
}

func TestLoadCheckpointRejectsShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	writeJSON(t, path, map[string]any{"state_dict": map[string]any{
		"fc1.weight": [][]float64{{1, 2}},
		"fc1.bias":   []float64{0},
		"fc2.weight": [][]float64{{1}, {1}},
		"fc2.bias":   []float64{0, 0},
	}})
	n, _ := models.NewNetwork(models.KindDeepfakeClassifier)
	before, _ := n.Score(sampleTensor(8))
	if err := n.LoadCheckpoint(path); !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	after, _ := n.Score(sampleTensor(8))
	if before != after {
		t.Fatal("failed load must leave weights untouched")
	}
}

func TestRegistryRegisterGetList(t *testing.T) {
	reg := models.NewRegistry(models.DeviceCPU, logging.NewNop())
	first := &fixedScorer{value: 0.2}
	reg.Register("b", first)
	reg.Register("a", &fixedScorer{value: 0.4})
	replacement := &fixedScorer{value: 0.9}
	reg.Register("b", replacement)

	if got := reg.List(); !slices.Equal(got, []string{"b", "a"}) {
		t.Fatalf("List = %v", got)
	}
	scorer, ok := reg.Get("b")
	if !ok || scorer != models.Scorer(replacement) {
		t.Fatalf("Get returned %v %v", scorer, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Fatal("missing model reported present")
	}
	if replacement.device != models.DeviceCPU {
		t.Fatalf("registered scorer not placed: %q", replacement.device)
	}

	reg.SetDevice(models.DeviceCUDA)
	if replacement.device != models.DeviceCUDA || reg.Device() != models.DeviceCUDA {
		t.Fatal("SetDevice did not move registered models")
	}
	late := &fixedScorer{}
	reg.Register("late", late)
	if late.device != models.DeviceCUDA {
		t.Fatal("later registration did not follow device")
	}
}

func TestRegistryLoadAll(t *testing.T) {
	dir := t.TempDir()
	good, _ := models.NewNetwork(models.KindDeepfakeClassifier)
	if err := models.SaveCheckpoint(models.CheckpointPath(dir, models.KindDeepfakeClassifier), good); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	if err := os.WriteFile(models.CheckpointPath(dir, models.KindGANDetector), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt checkpoint: %v", err)
	}

	reg := models.NewRegistry(models.DeviceCPU, nil)
	reg.LoadAll(dir)

	if got := reg.List(); !slices.Equal(got, models.Kinds()) {
		t.Fatalf("List = %v, want %v", got, models.Kinds())
	}
	states := map[string]models.State{}
	for _, info := range reg.Info() {
		states[info.Name] = info.State
	}
	if states[models.KindDeepfakeClassifier] != models.StateLoaded {
		t.Fatalf("classifier state = %q", states[models.KindDeepfakeClassifier])
	}
	if states[models.KindGANDetector] != models.StateUntrained {
		t.Fatalf("corrupt checkpoint should leave untrained weights, got %q", states[models.KindGANDetector])
	}
	if states[models.KindFacialForensics] != models.StateUntrained {
		t.Fatalf("missing checkpoint state = %q", states[models.KindFacialForensics])
	}
}

func TestRegistryLoadAllMissingDirectory(t *testing.T) {
	reg := models.NewRegistry("", nil)
	reg.LoadAll(filepath.Join(t.TempDir(), "absent"))
	if reg.Len() != len(models.Kinds()) {
		t.Fatalf("registered %d models, want %d", reg.Len(), len(models.Kinds()))
	}
	if reg.Device() != models.DeviceCPU {
		t.Fatalf("default device = %q", reg.Device())
	}
}

func TestParseDevice(t *testing.T) {
	if d, err := models.ParseDevice(" CUDA "); err != nil || d != models.DeviceCUDA {
		t.Fatalf("ParseDevice = %q %v", d, err)
	}
	if _, err := models.ParseDevice("tpu"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
