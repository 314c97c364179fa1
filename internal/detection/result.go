package detection

import (
	"encoding/json"
	"maps"
	"slices"
)

// Result is the verdict for one file. Predictions and confidences always
// share the same keys, kept in evaluation order.
type Result struct {
	MediaType       MediaType
	Filename        string
	Metadata        map[string]any
	AnalysisDetails map[string]any

	names              []string
	predictions        map[string]bool
	confidences        map[string]float64
	consensusThreshold float64
}

// NewResult returns an empty result using the default consensus threshold.
func NewResult(mediaType MediaType, filename string) *Result {
	return &Result{
		MediaType:          mediaType,
		Filename:           filename,
		Metadata:           map[string]any{},
		AnalysisDetails:    map[string]any{},
		predictions:        map[string]bool{},
		confidences:        map[string]float64{},
		consensusThreshold: DefaultConsensusThreshold,
	}
}

// AddPrediction records a verdict. Re-adding a name replaces its values and
// keeps its original position. Non-nil details are stored under the same name
// in AnalysisDetails.
func (r *Result) AddPrediction(name string, isFake bool, confidence float64, details map[string]any) {
	if _, exists := r.predictions[name]; !exists {
		r.names = append(r.names, name)
	}
	r.predictions[name] = isFake
	r.confidences[name] = confidence
	if details != nil {
		r.AnalysisDetails[name] = details
	}
}

// Names returns prediction names in evaluation order.
func (r *Result) Names() []string {
	return slices.Clone(r.names)
}

// Len is the number of predictions.
func (r *Result) Len() int { return len(r.names) }

// Prediction returns the verdict and confidence recorded under name.
func (r *Result) Prediction(name string) (isFake bool, confidence float64, ok bool) {
	isFake, ok = r.predictions[name]
	return isFake, r.confidences[name], ok
}

// Predictions returns a copy of the verdict map.
func (r *Result) Predictions() map[string]bool {
	return maps.Clone(r.predictions)
}

// Confidences returns a copy of the confidence map.
func (r *Result) Confidences() map[string]float64 {
	return maps.Clone(r.confidences)
}

// Consensus returns the majority verdict and the mean confidence. The verdict
// is true only when the share of fake votes is strictly above the consensus
// threshold, so a tie is not fake. No predictions yields (false, 0).
func (r *Result) Consensus() (bool, float64) {
	if len(r.names) == 0 {
		return false, 0
	}
	votes, total := 0.0, 0.0
	for _, name := range r.names {
		if r.predictions[name] {
			votes++
		}
		total += r.confidences[name]
	}
	n := float64(len(r.names))
	return votes/n > r.consensusThreshold, total / n
}

// SetConsensusThreshold overrides the vote share a fake verdict must exceed.
func (r *Result) SetConsensusThreshold(threshold float64) {
	r.consensusThreshold = threshold
}

// SetError records a failure marker in metadata.
func (r *Result) SetError(message string) {
	r.Metadata["error"] = message
}

// Error returns the failure marker, if any.
func (r *Result) Error() string {
	if msg, ok := r.Metadata["error"].(string); ok {
		return msg
	}
	return ""
}

// Summary is the flat, serialisable view of a Result.
type Summary struct {
	Filename          string             `json:"filename" yaml:"filename"`
	MediaType         MediaType          `json:"media_type" yaml:"media_type"`
	IsDeepfake        bool               `json:"is_deepfake" yaml:"is_deepfake"`
	AverageConfidence float64            `json:"average_confidence" yaml:"average_confidence"`
	ModelPredictions  map[string]bool    `json:"model_predictions" yaml:"model_predictions"`
	ModelConfidences  map[string]float64 `json:"model_confidences" yaml:"model_confidences"`
	Metadata          map[string]any     `json:"metadata" yaml:"metadata"`
	AnalysisDetails   map[string]any     `json:"analysis_details" yaml:"analysis_details"`
}

// Summary flattens the result with its consensus.
func (r *Result) Summary() Summary {
	isFake, confidence := r.Consensus()
	return Summary{
		Filename:          r.Filename,
		MediaType:         r.MediaType,
		IsDeepfake:        isFake,
		AverageConfidence: confidence,
		ModelPredictions:  r.Predictions(),
		ModelConfidences:  r.Confidences(),
		Metadata:          maps.Clone(r.Metadata),
		AnalysisDetails:   maps.Clone(r.AnalysisDetails),
	}
}

// MarshalJSON encodes the Summary form.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Summary())
}

// FromSummary rebuilds a result from its flattened form. Prediction order is
// alphabetical since summaries do not carry it.
func FromSummary(s Summary) *Result {
	r := NewResult(s.MediaType, s.Filename)
	if s.Metadata != nil {
		r.Metadata = s.Metadata
	}
	if s.AnalysisDetails != nil {
		r.AnalysisDetails = s.AnalysisDetails
	}
	for _, name := range slices.Sorted(maps.Keys(s.ModelPredictions)) {
		r.AddPrediction(name, s.ModelPredictions[name], s.ModelConfidences[name], nil)
	}
	return r
}
