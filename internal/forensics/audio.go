package forensics

import "math"

// SpectralAnalysis is the audio counterpart of the image heuristics.
type SpectralAnalysis struct {
	SpectralEntropy    float64 `json:"spectral_entropy" yaml:"spectral_entropy"`
	SuspiciousPatterns bool    `json:"suspicious_patterns" yaml:"suspicious_patterns"`
}

// SpectralEntropy treats the magnitudes of a dB spectrogram as a probability
// mass and returns -sum(p*log2(p+1e-10)). An all-zero spectrogram yields 0.
func SpectralEntropy(specDB [][]float64) float64 {
	total := 0.0
	for _, row := range specDB {
		for _, v := range row {
			total += math.Abs(v)
		}
	}
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	entropy := 0.0
	for _, row := range specDB {
		for _, v := range row {
			p := math.Abs(v) / total
			entropy -= p * math.Log2(p+entropyEpsilon)
		}
	}
	return entropy
}

// AnalyzeSpectrum marks spectra whose entropy falls below threshold.
func AnalyzeSpectrum(specDB [][]float64, threshold float64) SpectralAnalysis {
	entropy := SpectralEntropy(specDB)
	return SpectralAnalysis{SpectralEntropy: entropy, SuspiciousPatterns: entropy < threshold}
}
