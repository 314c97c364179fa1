package detection

import (
	"deepscan/internal/config"
	"deepscan/internal/models"
)

// Defaults for Policy.
const (
	DefaultConfidenceThreshold      = 0.5
	DefaultConsensusThreshold       = 0.5
	DefaultFrameSampleRate          = 5
	DefaultFakeFrameRatio           = 0.3
	DefaultInputSize                = 224
	DefaultAudioSampleRate          = 16000
	DefaultAudioConfidence          = 0.5
	DefaultSpectralEntropyThreshold = 5.0
	DefaultMaxUploadBytes           = 500 * 1024 * 1024
)

// ImageModels are scored, in order, for every image.
var ImageModels = []string{models.KindDeepfakeClassifier, models.KindGANDetector, models.KindFacialForensics}

// FrameModel is the only model scored per video frame.
const FrameModel = models.KindDeepfakeClassifier

// AllowedUploadExtensions lists the extensions accepted over HTTP.
var AllowedUploadExtensions = []string{"mp4", "avi", "mov", "mkv", "jpg", "jpeg", "png", "gif", "bmp", "wav", "mp3", "m4a"}

// Policy holds the thresholds and sampling parameters shared by the analyzers.
type Policy struct {
	ConfidenceThreshold      float64
	ConsensusThreshold       float64
	FrameSampleRate          int
	FakeFrameRatio           float64
	InputSize                int
	AudioSampleRate          int
	AudioConfidence          float64
	SpectralEntropyThreshold float64
	MaxFrames                int
	MaxUploadBytes           int64
	AllowedExtensions        []string
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ConfidenceThreshold:      DefaultConfidenceThreshold,
		ConsensusThreshold:       DefaultConsensusThreshold,
		FrameSampleRate:          DefaultFrameSampleRate,
		FakeFrameRatio:           DefaultFakeFrameRatio,
		InputSize:                DefaultInputSize,
		AudioSampleRate:          DefaultAudioSampleRate,
		AudioConfidence:          DefaultAudioConfidence,
		SpectralEntropyThreshold: DefaultSpectralEntropyThreshold,
		MaxUploadBytes:           DefaultMaxUploadBytes,
		AllowedExtensions:        AllowedUploadExtensions,
	}
}

// PolicyFromConfig copies the configured detection values into a Policy.
func PolicyFromConfig(cfg *config.Config) Policy {
	p := DefaultPolicy()
	if cfg == nil {
		return p
	}
	d := cfg.Detection
	p.ConfidenceThreshold = d.ConfidenceThreshold
	p.ConsensusThreshold = d.ConsensusThreshold
	p.FakeFrameRatio = d.FakeFrameRatio
	p.AudioConfidence = d.AudioConfidence
	p.SpectralEntropyThreshold = d.SpectralEntropyThreshold
	p.MaxFrames = d.MaxFrames
	if d.FrameSampleRate > 0 {
		p.FrameSampleRate = d.FrameSampleRate
	}
	if d.InputSize > 0 {
		p.InputSize = d.InputSize
	}
	if d.AudioSampleRate > 0 {
		p.AudioSampleRate = d.AudioSampleRate
	}
	if limit := cfg.MaxUploadBytes(); limit > 0 {
		p.MaxUploadBytes = limit
	}
	return p
}

func (p Policy) newResult(mediaType MediaType, filename string) *Result {
	r := NewResult(mediaType, filename)
	r.SetConsensusThreshold(p.ConsensusThreshold)
	return r
}
