package detection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"deepscan/internal/services"
)

// MediaType classifies an input file.
type MediaType string

const (
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaAudio   MediaType = "audio"
	MediaUnknown MediaType = "unknown"
)

var extensionTypes = map[string]MediaType{
	".jpg":  MediaImage,
	".jpeg": MediaImage,
	".png":  MediaImage,
	".gif":  MediaImage,
	".bmp":  MediaImage,
	".tif":  MediaImage,
	".tiff": MediaImage,
	".webp": MediaImage,
	".mp4":  MediaVideo,
	".avi":  MediaVideo,
	".mov":  MediaVideo,
	".mkv":  MediaVideo,
	".webm": MediaVideo,
	".wav":  MediaAudio,
	".mp3":  MediaAudio,
	".m4a":  MediaAudio,
	".flac": MediaAudio,
	".ogg":  MediaAudio,
}

// ParseMediaType accepts image, video, or audio. An empty value means
// "resolve from the path" and returns "".
func ParseMediaType(value string) (MediaType, error) {
	switch t := MediaType(strings.ToLower(strings.TrimSpace(value))); t {
	case "":
		return "", nil
	case MediaImage, MediaVideo, MediaAudio:
		return t, nil
	default:
		return "", services.Wrap(services.ErrValidation, "detection", "media type",
			fmt.Sprintf("unsupported media type %q (want image, video, or audio)", value), nil)
	}
}

// TypeForExtension classifies a file name by extension alone.
func TypeForExtension(name string) MediaType {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return MediaUnknown
}

// ResolveMediaType classifies an existing file by extension. Missing files
// and unrecognised extensions are unknown.
func ResolveMediaType(path string) MediaType {
	if _, err := os.Stat(path); err != nil {
		return MediaUnknown
	}
	return TypeForExtension(path)
}
