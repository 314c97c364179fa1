// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties, including frame rate
//     and frame count helpers used by the video reader
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect executes ffprobe and returns the parsed Result; Parse decodes a
// captured JSON document.
package ffprobe
