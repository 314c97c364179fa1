// Package audio selects and decodes the primary audio stream of a media file.
//
// Select ranks candidate streams from ffprobe output. Reader probes the file
// for native sample rate and duration, then asks ffmpeg for mono float32 PCM
// at the analysis rate (16 kHz by default). Decode failures produce an empty
// Waveform rather than an error so callers can record the condition on their
// result.
package audio
