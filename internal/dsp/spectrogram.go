package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// MelParams configures the short-time Fourier transform and mel projection.
type MelParams struct {
	NFFT      int
	HopLength int
	NMels     int
	FMin      float64
	FMax      float64
}

// DefaultMelParams returns the analysis defaults: 2048-point FFT, hop 512,
// 128 mel bands spanning 0 Hz to Nyquist.
func DefaultMelParams(sampleRate int) MelParams {
	return MelParams{
		NFFT:      2048,
		HopLength: 512,
		NMels:     128,
		FMin:      0,
		FMax:      float64(sampleRate) / 2,
	}
}

// PowerSpectrogram computes |STFT|^2 with a periodic Hann window. The signal is
// zero-padded by NFFT/2 on both sides so frame t is centred on sample t*hop.
// The result is indexed [frame][bin] with NFFT/2+1 bins.
func PowerSpectrogram(samples []float64, nfft, hop int) [][]float64 {
	if len(samples) == 0 || nfft <= 0 || hop <= 0 {
		return nil
	}
	pad := nfft / 2
	padded := make([]float64, len(samples)+2*pad)
	copy(padded[pad:], samples)

	window := hann(nfft)
	fft := fourier.NewFFT(nfft)
	frameBuf := make([]float64, nfft)
	coeffs := make([]complex128, nfft/2+1)

	count := 1 + (len(padded)-nfft)/hop
	out := make([][]float64, count)
	for t := 0; t < count; t++ {
		start := t * hop
		for i := 0; i < nfft; i++ {
			frameBuf[i] = padded[start+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, frameBuf)
		row := make([]float64, len(coeffs))
		for k, c := range coeffs {
			mag := cmplx.Abs(c)
			row[k] = mag * mag
		}
		out[t] = row
	}
	return out
}

// MelSpectrogram projects the power spectrogram onto a slaney-normalized mel
// filterbank. The result is indexed [mel][frame].
func MelSpectrogram(samples []float64, sampleRate int, params MelParams) [][]float64 {
	power := PowerSpectrogram(samples, params.NFFT, params.HopLength)
	if len(power) == 0 {
		return nil
	}
	bank := MelFilterBank(sampleRate, params.NFFT, params.NMels, params.FMin, params.FMax)
	out := make([][]float64, len(bank))
	for m, weights := range bank {
		row := make([]float64, len(power))
		for t, frame := range power {
			row[t] = floats.Dot(weights, frame)
		}
		out[m] = row
	}
	return out
}

// MelFilterBank builds triangular mel filters on the slaney mel scale with
// slaney area normalization. The result is indexed [mel][fft bin].
func MelFilterBank(sampleRate, nfft, nMels int, fmin, fmax float64) [][]float64 {
	bins := nfft/2 + 1
	fftFreqs := make([]float64, bins)
	floats.Span(fftFreqs, 0, float64(sampleRate)/2)

	melPoints := make([]float64, nMels+2)
	floats.Span(melPoints, hzToMel(fmin), hzToMel(fmax))
	hzPoints := make([]float64, len(melPoints))
	for i, m := range melPoints {
		hzPoints[i] = melToHz(m)
	}

	bank := make([][]float64, nMels)
	for i := 0; i < nMels; i++ {
		lowerWidth := hzPoints[i+1] - hzPoints[i]
		upperWidth := hzPoints[i+2] - hzPoints[i+1]
		enorm := 2 / (hzPoints[i+2] - hzPoints[i])
		row := make([]float64, bins)
		for k, f := range fftFreqs {
			lower := (f - hzPoints[i]) / lowerWidth
			upper := (hzPoints[i+2] - f) / upperWidth
			w := math.Min(lower, upper)
			if w > 0 {
				row[k] = w * enorm
			}
		}
		bank[i] = row
	}
	return bank
}

const (
	melLinearStep = 200.0 / 3
	melLogHz      = 1000.0
	melLogMel     = melLogHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27

func hzToMel(hz float64) float64 {
	if hz >= melLogHz {
		return melLogMel + math.Log(hz/melLogHz)/melLogStep
	}
	return hz / melLinearStep
}

func melToHz(mel float64) float64 {
	if mel >= melLogMel {
		return melLogHz * math.Exp(melLogStep*(mel-melLogMel))
	}
	return mel * melLinearStep
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
