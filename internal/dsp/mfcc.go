package dsp

import "math"

// MFCC computes n mel-frequency cepstral coefficients per frame: the dB mel
// spectrogram (reference 1.0, 80 dB range) followed by an orthonormal DCT-II
// across mel bands. The result is indexed [coefficient][frame].
func MFCC(samples []float64, sampleRate, n int) [][]float64 {
	params := DefaultMelParams(sampleRate)
	mel := MelSpectrogram(samples, sampleRate, params)
	if mel == nil || n <= 0 {
		return nil
	}
	logMel := PowerToDB(mel, 1.0, DefaultAmin, DefaultTopDB)
	nMels := len(logMel)
	if n > nMels {
		n = nMels
	}
	frames := len(logMel[0])

	basis := dctBasis(n, nMels)
	out := make([][]float64, n)
	for k := 0; k < n; k++ {
		row := make([]float64, frames)
		for t := 0; t < frames; t++ {
			sum := 0.0
			for m := 0; m < nMels; m++ {
				sum += basis[k][m] * logMel[m][t]
			}
			row[t] = sum
		}
		out[k] = row
	}
	return out
}

// dctBasis returns the first n rows of the orthonormal DCT-II matrix of size size.
func dctBasis(n, size int) [][]float64 {
	basis := make([][]float64, n)
	scale0 := math.Sqrt(1 / float64(size))
	scale := math.Sqrt(2 / float64(size))
	for k := 0; k < n; k++ {
		row := make([]float64, size)
		s := scale
		if k == 0 {
			s = scale0
		}
		for m := 0; m < size; m++ {
			row[m] = s * math.Cos(math.Pi*float64(k)*(2*float64(m)+1)/(2*float64(size)))
		}
		basis[k] = row
	}
	return basis
}
