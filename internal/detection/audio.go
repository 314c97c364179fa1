package detection

import (
	"context"
	"log/slog"

	"deepscan/internal/dsp"
	"deepscan/internal/forensics"
	"deepscan/internal/logging"
	"deepscan/internal/media/audio"
)

// WaveformSource decodes audio tracks.
type WaveformSource interface {
	Properties(ctx context.Context, path string) (audio.Properties, error)
	Load(ctx context.Context, path string) audio.Waveform
}

const mfccCoefficients = 13

// AudioAnalyzer applies the spectral-entropy heuristic to audio tracks.
type AudioAnalyzer struct {
	source WaveformSource
	policy Policy
	logger *slog.Logger
}

// NewAudioAnalyzer builds an analyzer decoding through source.
func NewAudioAnalyzer(source WaveformSource, policy Policy, logger *slog.Logger) *AudioAnalyzer {
	return &AudioAnalyzer{source: source, policy: policy, logger: logging.NewComponentLogger(logger, "audio_analyzer")}
}

// Analyze decodes path and adds an audio_analysis prediction. Its confidence
// is the configured fixed value whatever the entropy; only the verdict
// carries the suspicion.
func (a *AudioAnalyzer) Analyze(ctx context.Context, path string) *Result {
	result := a.policy.newResult(MediaAudio, path)
	logger := logging.WithContext(ctx, a.logger)

	wave := a.source.Load(ctx, path)
	if wave.Empty() {
		result.SetError("Failed to load audio")
		return result
	}
	if props, err := a.source.Properties(ctx, path); err != nil {
		result.Metadata["properties_error"] = err.Error()
	} else {
		result.Metadata = props.Map()
	}
	result.Metadata["native_sample_rate"] = wave.NativeRate
	result.Metadata["analysis_sample_rate"] = wave.SampleRate

	if ctx.Err() != nil {
		result.Metadata["interrupted"] = true
		return result
	}
	mfcc := dsp.MFCC(wave.Samples, wave.SampleRate, mfccCoefficients)
	mel := dsp.MelSpectrogramDB(wave.Samples, wave.SampleRate)
	result.AnalysisDetails["mfcc_stats"] = dsp.Summarize(mfcc).Map()
	result.AnalysisDetails["spectrogram_stats"] = dsp.Summarize(mel).Map()

	spectral := forensics.AnalyzeSpectrum(mel, a.policy.SpectralEntropyThreshold)
	result.AddPrediction("audio_analysis", spectral.SuspiciousPatterns, a.policy.AudioConfidence, map[string]any{
		"spectral_entropy":    spectral.SpectralEntropy,
		"suspicious_patterns": spectral.SuspiciousPatterns,
	})
	logger.Info("audio analyzed",
		logging.String(logging.FieldEventType, "audio_analyzed"),
		logging.Float64("duration_seconds", wave.DurationSeconds()),
		logging.Float64("spectral_entropy", spectral.SpectralEntropy),
		logging.Bool("suspicious", spectral.SuspiciousPatterns),
	)
	return result
}
