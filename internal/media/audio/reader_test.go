package audio_test

import (
	"context"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"deepscan/internal/media/audio"
	"deepscan/internal/testsupport"
)

const probeJSON = `{"streams":[{"index":0,"codec_type":"audio","codec_name":"pcm_s16le","sample_rate":"44100","channels":2,"duration":"2.0"}],"format":{"duration":"2.0","size":"352844"}}`

func TestDecodeFloat32LE(t *testing.T) {
	data := make([]byte, 0, 10)
	for _, v := range []float32{1, -0.5} {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
	}
	data = append(data, 0x01, 0x02)
	samples := audio.DecodeFloat32LE(data)
	if len(samples) != 2 || samples[0] != 1 || samples[1] != -0.5 {
		t.Fatalf("unexpected samples: %v", samples)
	}
}

func TestReaderPropertiesAndLoad(t *testing.T) {
	dir := t.TempDir()
	ffprobe := testsupport.StubBinary(t, dir, "ffprobe", "cat <<'JSON'\n"+probeJSON+"\nJSON\n")
	// Two float32 samples: 1.0 and 0.0.
	ffmpeg := testsupport.StubBinary(t, dir, "ffmpeg", `printf '\000\000\200\077\000\000\000\000'`+"\n")

	reader := audio.NewReader(ffmpeg, ffprobe, 0, nil)
	input := filepath.Join(dir, "voice.wav")
	testsupport.WriteFile(t, input, 16)

	props, err := reader.Properties(context.Background(), input)
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if props.SampleRate != 44100 || props.Channels != 2 || props.Duration != 2.0 {
		t.Fatalf("unexpected properties: %+v", props)
	}
	if props.FrameCount != 88200 {
		t.Fatalf("unexpected frame count: %d", props.FrameCount)
	}
	if props.FileSize != 352844 {
		t.Fatalf("unexpected file size: %d", props.FileSize)
	}

	wave := reader.Load(context.Background(), input)
	if wave.Empty() {
		t.Fatal("expected decoded samples")
	}
	if wave.SampleRate != audio.DefaultTargetRate || wave.NativeRate != 44100 {
		t.Fatalf("unexpected rates: %+v", wave)
	}
	if len(wave.Samples) != 2 || wave.Samples[0] != 1 || wave.Samples[1] != 0 {
		t.Fatalf("unexpected samples: %v", wave.Samples)
	}
}

func TestReaderLoadFailureYieldsEmptyWaveform(t *testing.T) {
	dir := t.TempDir()
	ffprobe := testsupport.StubBinary(t, dir, "ffprobe", "cat <<'JSON'\n"+probeJSON+"\nJSON\n")
	ffmpeg := testsupport.StubBinary(t, dir, "ffmpeg", "echo 'Invalid data found when processing input' >&2\nexit 1\n")

	reader := audio.NewReader(ffmpeg, ffprobe, 16000, nil)
	wave := reader.Load(context.Background(), filepath.Join(dir, "broken.mp3"))
	if !wave.Empty() {
		t.Fatalf("expected empty waveform, got %d samples", len(wave.Samples))
	}
}

func TestReaderPropertiesWithoutAudioStream(t *testing.T) {
	dir := t.TempDir()
	ffprobe := testsupport.StubBinary(t, dir, "ffprobe", `echo '{"streams":[{"index":0,"codec_type":"video"}],"format":{}}'`+"\n")
	reader := audio.NewReader("ffmpeg", ffprobe, 16000, nil)
	if _, err := reader.Properties(context.Background(), filepath.Join(dir, "silent.mp4")); err == nil {
		t.Fatal("expected error for file without audio")
	}
}
