// Package video reads container properties and sampled RGB frames from video
// files.
//
// Properties come from ffprobe. Frames are streamed from ffmpeg as raw rgb24
// with a select filter that keeps every n-th decoded frame, so only sampled
// frames cross the pipe. Auto-rotation is disabled so every frame matches the
// coded dimensions reported by ffprobe.
package video
