package detection_test

import (
	"context"
	"errors"
	"math"
	"sync"

	"deepscan/internal/media/audio"
	"deepscan/internal/media/raster"
	"deepscan/internal/media/video"
	"deepscan/internal/models"
)

type constScorer float64

func (c constScorer) Score(models.Tensor) (float64, error) { return float64(c), nil }

type errScorer struct{}

func (errScorer) Score(models.Tensor) (float64, error) { return 0, errors.New("weights exploded") }

// seqScorer returns its values in call order and repeats the last one.
type seqScorer struct {
	mu     sync.Mutex
	values []float64
	calls  int
}

func (s *seqScorer) Score(models.Tensor) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := min(s.calls, len(s.values)-1)
	s.calls++
	return s.values[i], nil
}

type fakeFrames struct {
	props    video.Properties
	propsErr error
	frames   []*raster.Image
	err      error
	panics   bool
	gotRate  int
}

func (f *fakeFrames) Properties(context.Context, string) (video.Properties, error) {
	return f.props, f.propsErr
}

func (f *fakeFrames) ExtractFrames(_ context.Context, _ string, rate int) ([]*raster.Image, error) {
	if f.panics {
		panic("decoder crashed")
	}
	f.gotRate = rate
	return f.frames, f.err
}

type fakeWaveforms struct {
	props audio.Properties
	wave  audio.Waveform
}

func (f *fakeWaveforms) Properties(context.Context, string) (audio.Properties, error) {
	return f.props, nil
}

func (f *fakeWaveforms) Load(context.Context, string) audio.Waveform {
	return f.wave
}

func solidFrames(n int) []*raster.Image {
	out := make([]*raster.Image, n)
	for i := range out {
		img := raster.New(16, 16)
		for j := range img.Pix {
			img.Pix[j] = uint8(i * 10)
		}
		out[i] = img
	}
	return out
}

func sineWave(freq float64, seconds float64, rate int) audio.Waveform {
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return audio.Waveform{Samples: samples, SampleRate: rate, NativeRate: 44100}
}
