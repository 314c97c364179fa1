package audio

import (
	"strings"

	"deepscan/internal/media/ffprobe"
)

// Selection identifies the audio stream whose waveform is analyzed.
type Selection struct {
	Primary      ffprobe.Stream
	PrimaryIndex int
	Candidates   int
}

// Found reports whether any audio stream was available.
func (s Selection) Found() bool {
	return s.PrimaryIndex >= 0
}

// Select ranks the audio streams of a container and returns the one that most
// likely carries the main programme audio. Default-flagged streams win, then
// streams not labelled as commentary or description, then earlier streams.
func Select(streams []ffprobe.Stream) Selection {
	best := -1
	bestScore := 0.0
	count := 0
	var primary ffprobe.Stream
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		score := scoreStream(stream, count)
		if best < 0 || score > bestScore {
			best = stream.Index
			bestScore = score
			primary = stream
		}
		count++
	}
	return Selection{Primary: primary, PrimaryIndex: best, Candidates: count}
}

func scoreStream(stream ffprobe.Stream, order int) float64 {
	score := 100.0
	if stream.IsDefault() {
		score += 50
	}
	if isSecondary(stream.Tags) || stream.Disposition["comment"] == 1 || stream.Disposition["visual_impaired"] == 1 {
		score -= 80
	}
	if stream.SampleRateHz() > 0 {
		score += 10
	}
	// Earlier streams win ties.
	return score - float64(order)*0.1
}

func isSecondary(tags map[string]string) bool {
	for _, key := range []string{"title", "TITLE", "handler_name", "HANDLER_NAME"} {
		value := strings.ToLower(tags[key])
		if strings.Contains(value, "commentary") || strings.Contains(value, "description") {
			return true
		}
	}
	return false
}
