package deps

// MediaRequirements lists the decoders needed for video and audio analysis.
// Image analysis works without either.
func MediaRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Decodes video frames and resamples audio",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Reads container and stream properties",
		},
	}
}

// CheckMediaTools resolves the configured ffmpeg and ffprobe commands.
func CheckMediaTools(ffmpeg, ffprobe string) []Status {
	return CheckBinaries(MediaRequirements(ffmpeg, ffprobe))
}
