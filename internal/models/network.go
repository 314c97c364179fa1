package models

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"deepscan/internal/services"
)

// Model kinds loaded by Registry.LoadAll.
const (
	KindFaceDetection      = "face_detection"
	KindDeepfakeClassifier = "deepfake_classifier"
	KindGANDetector        = "gan_detector"
	KindFacialForensics    = "facial_forensics"
)

// Kinds returns every known model kind in load order.
func Kinds() []string {
	return []string{KindFaceDetection, KindDeepfakeClassifier, KindGANDetector, KindFacialForensics}
}

// Scorer produces the probability that an image tensor is synthetic.
type Scorer interface {
	Score(Tensor) (float64, error)
}

// FaceDetector locates the most likely face in a tensor.
type FaceDetector interface {
	DetectFace(Tensor) (Face, error)
}

// Placeable is implemented by scorers that track the device they run on.
type Placeable interface {
	SetDevice(Device)
}

type architecture struct {
	description string
	features    featureFunc
	inputs      int
	hidden      int
	outputs     int
	box         bool
}

var architectures = map[string]architecture{
	KindDeepfakeClassifier: {"pooled colour classifier", classifierFeatures, 195, 64, 2, false},
	KindGANDetector:        {"high-frequency residue detector", ganFeatures, 54, 32, 2, false},
	KindFacialForensics:    {"luma and chroma consistency model", facialFeatures, 49, 32, 2, false},
	KindFaceDetection:      {"skin-tone face locator", faceFeatures, 128, 32, 1, true},
}

// Network is a feature extractor followed by a ReLU hidden layer and an output
// layer. Two-output networks are softmax classifiers whose second class is
// "fake"; the face detector has a single sigmoid confidence and a box head.
type Network struct {
	kind string
	arch architecture

	mu     sync.RWMutex
	device Device
	hidden layer
	output layer
	box    *layer
}

// NewNetwork constructs kind with deterministic untrained weights.
func NewNetwork(kind string) (*Network, error) {
	arch, ok := architectures[kind]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "models", "create", fmt.Sprintf("unknown model type %q", kind), nil)
	}
	rng := seededRand(kind)
	n := &Network{
		kind:   kind,
		arch:   arch,
		device: DeviceCPU,
		hidden: newLayer("fc1", arch.inputs, arch.hidden, rng),
		output: newLayer("fc2", arch.hidden, arch.outputs, rng),
	}
	if arch.box {
		box := newLayer("bbox", arch.hidden, 4, rng)
		n.box = &box
	}
	return n, nil
}

// Kind returns the model kind.
func (n *Network) Kind() string { return n.kind }

// Description is a short human label for the architecture.
func (n *Network) Description() string { return n.arch.description }

// SetDevice records the inference device. Computation is the same on every
// device.
func (n *Network) SetDevice(d Device) {
	n.mu.Lock()
	n.device = d
	n.mu.Unlock()
}

// Device returns the current inference device.
func (n *Network) Device() Device {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.device
}

// Parameters counts every weight and bias.
func (n *Network) Parameters() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	total := n.hidden.parameters() + n.output.parameters()
	if n.box != nil {
		total += n.box.parameters()
	}
	return total
}

// Score returns P(fake) for classifiers and the face confidence for the face
// detector.
func (n *Network) Score(t Tensor) (float64, error) {
	logits, _, err := n.forward(t)
	if err != nil {
		return 0, err
	}
	if n.arch.outputs == 1 {
		return sigmoid(logits.AtVec(0)), nil
	}
	probs := softmax(logits.RawVector().Data)
	return probs[1], nil
}

// Face is a face detection with a box normalised to the image size.
type Face struct {
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// DetectFace runs the face head and the box head. Only face_detection
// networks support it.
func (n *Network) DetectFace(t Tensor) (Face, error) {
	if n.box == nil {
		return Face{}, fmt.Errorf("%s has no box head", n.kind)
	}
	logits, hidden, err := n.forward(t)
	if err != nil {
		return Face{}, err
	}
	n.mu.RLock()
	box := n.box.apply(hidden)
	n.mu.RUnlock()
	return Face{
		Confidence: sigmoid(logits.AtVec(0)),
		X:          sigmoid(box.AtVec(0)),
		Y:          sigmoid(box.AtVec(1)),
		Width:      sigmoid(box.AtVec(2)),
		Height:     sigmoid(box.AtVec(3)),
	}, nil
}

func (n *Network) forward(t Tensor) (*mat.VecDense, *mat.VecDense, error) {
	if err := t.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", n.kind, err)
	}
	features := n.arch.features(t)
	if len(features) != n.arch.inputs {
		return nil, nil, fmt.Errorf("%s: extractor produced %d features, want %d", n.kind, len(features), n.arch.inputs)
	}
	for _, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%s: non-finite feature", n.kind)
		}
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	hidden := n.hidden.apply(mat.NewVecDense(len(features), features))
	for i := 0; i < hidden.Len(); i++ {
		if hidden.AtVec(i) < 0 {
			hidden.SetVec(i, 0)
		}
	}
	return n.output.apply(hidden), hidden, nil
}

func (n *Network) layers() []*layer {
	out := []*layer{&n.hidden, &n.output}
	if n.box != nil {
		out = append(out, n.box)
	}
	return out
}

type layer struct {
	name   string
	weight *mat.Dense
	bias   *mat.VecDense
}

// newLayer draws Xavier-uniform weights and zero biases.
func newLayer(name string, in, out int, rng *rand.Rand) layer {
	limit := math.Sqrt(6 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return layer{name: name, weight: mat.NewDense(out, in, data), bias: mat.NewVecDense(out, nil)}
}

func (l *layer) apply(x mat.Vector) *mat.VecDense {
	rows, _ := l.weight.Dims()
	out := mat.NewVecDense(rows, nil)
	out.MulVec(l.weight, x)
	out.AddVec(out, l.bias)
	return out
}

func (l *layer) parameters() int {
	r, c := l.weight.Dims()
	return r*c + l.bias.Len()
}

func seededRand(kind string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	peak := floats.Max(logits)
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
