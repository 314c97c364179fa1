package dsp

import "math"

const (
	// DefaultAmin floors power values before the logarithm.
	DefaultAmin = 1e-10
	// DefaultTopDB clips the dynamic range below the peak.
	DefaultTopDB = 80.0
)

// RefMax asks PowerToDB to use the spectrogram maximum as the 0 dB reference.
const RefMax = -1.0

// PowerToDB converts a power spectrogram to decibels:
// 10*log10(max(amin, S)) - 10*log10(max(amin, ref)), then clips everything
// more than topDB below the peak. A negative ref selects the maximum of spec.
// topDB <= 0 disables clipping.
func PowerToDB(spec [][]float64, ref, amin, topDB float64) [][]float64 {
	if ref < 0 {
		ref = 0
		for _, row := range spec {
			for _, v := range row {
				ref = math.Max(ref, v)
			}
		}
	}
	offset := 10 * math.Log10(math.Max(amin, ref))
	peak := math.Inf(-1)
	out := make([][]float64, len(spec))
	for i, row := range spec {
		dbRow := make([]float64, len(row))
		for j, v := range row {
			dbRow[j] = 10*math.Log10(math.Max(amin, v)) - offset
			peak = math.Max(peak, dbRow[j])
		}
		out[i] = dbRow
	}
	if topDB > 0 {
		floor := peak - topDB
		for _, row := range out {
			for j, v := range row {
				if v < floor {
					row[j] = floor
				}
			}
		}
	}
	return out
}

// MelSpectrogramDB returns the default mel spectrogram in dB relative to its peak.
func MelSpectrogramDB(samples []float64, sampleRate int) [][]float64 {
	mel := MelSpectrogram(samples, sampleRate, DefaultMelParams(sampleRate))
	if mel == nil {
		return nil
	}
	return PowerToDB(mel, RefMax, DefaultAmin, DefaultTopDB)
}
