package forensics

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"deepscan/internal/services"
)

const (
	exifValueLimit = 100
	headerLength   = 16
)

// FileProperties are filesystem facts about the analysed file.
type FileProperties struct {
	Filename string    `json:"filename" yaml:"filename"`
	FileSize int64     `json:"file_size" yaml:"file_size"`
	Modified time.Time `json:"modified" yaml:"modified"`
	Mode     string    `json:"mode" yaml:"mode"`
}

// FileHeaders describes the leading bytes of the file and what they imply.
type FileHeaders struct {
	MagicBytes        string `json:"magic_bytes" yaml:"magic_bytes"`
	MagicASCII        string `json:"magic_ascii" yaml:"magic_ascii"`
	DetectedExtension string `json:"detected_extension,omitempty" yaml:"detected_extension,omitempty"`
	DetectedMIME      string `json:"detected_mime,omitempty" yaml:"detected_mime,omitempty"`
	ExtensionMismatch bool   `json:"extension_mismatch" yaml:"extension_mismatch"`
}

// ExtractEXIF returns every EXIF tag in the file keyed by tag name, each value
// rendered as text and cut to 100 characters. Files without an EXIF block
// yield an empty map.
func ExtractEXIF(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "forensics", "open", filepath.Base(path), err)
	}
	defer file.Close()

	tags := map[string]string{}
	x, err := exif.Decode(file)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		if isMissingEXIF(err) {
			return tags, nil
		}
		return tags, services.Wrap(services.ErrDecode, "forensics", "exif", "", err)
	}
	walkErr := x.Walk(exifWalker(func(name exif.FieldName, tag *tiff.Tag) {
		tags[string(name)] = truncate(tagText(tag), exifValueLimit)
	}))
	if walkErr != nil {
		return tags, services.Wrap(services.ErrDecode, "forensics", "exif walk", "", walkErr)
	}
	return tags, nil
}

type exifWalker func(exif.FieldName, *tiff.Tag)

func (w exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w(name, tag)
	return nil
}

func tagText(tag *tiff.Tag) string {
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			return strings.TrimRight(s, "\x00")
		}
	}
	return tag.String()
}

func isMissingEXIF(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return strings.Contains(err.Error(), "failed to find exif intro marker")
}

// ReadFileProperties stats path.
func ReadFileProperties(path string) (FileProperties, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileProperties{}, services.Wrap(services.ErrNotFound, "forensics", "stat", filepath.Base(path), err)
	}
	return FileProperties{
		Filename: info.Name(),
		FileSize: info.Size(),
		Modified: info.ModTime().UTC(),
		Mode:     info.Mode().String(),
	}, nil
}

// AnalyzeFileHeaders reads the first 16 bytes of path, renders them as hex
// and printable ASCII, and compares the sniffed type with the file extension.
func AnalyzeFileHeaders(path string) (FileHeaders, error) {
	file, err := os.Open(path)
	if err != nil {
		return FileHeaders{}, services.Wrap(services.ErrNotFound, "forensics", "open", filepath.Base(path), err)
	}
	defer file.Close()

	// filetype needs more than 16 bytes for some containers.
	buf := make([]byte, 262)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FileHeaders{}, fmt.Errorf("read header: %w", err)
	}
	buf = buf[:n]
	return SniffHeader(buf, filepath.Ext(path)), nil
}

// SniffHeader builds FileHeaders from already-read leading bytes. ext is the
// claimed file extension including its dot; empty skips the mismatch check.
func SniffHeader(buf []byte, ext string) FileHeaders {
	head := buf[:min(len(buf), headerLength)]
	out := FileHeaders{
		MagicBytes: hex.EncodeToString(head),
		MagicASCII: printableASCII(head),
	}
	kind, err := filetype.Match(buf)
	if err != nil || kind == filetype.Unknown {
		return out
	}
	out.DetectedExtension = kind.Extension
	out.DetectedMIME = kind.MIME.Value
	claimed := strings.TrimPrefix(strings.ToLower(ext), ".")
	if claimed != "" {
		out.ExtensionMismatch = !extensionMatches(claimed, kind.Extension)
	}
	return out
}

var extensionAliases = map[string]string{
	"jpeg": "jpg",
	"tiff": "tif",
	"m4a":  "mp4",
	"mov":  "mp4",
}

func extensionMatches(claimed, detected string) bool {
	canonical := func(ext string) string {
		if alias, ok := extensionAliases[ext]; ok {
			return alias
		}
		return ext
	}
	return canonical(claimed) == canonical(detected)
}

func printableASCII(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 32 && c < 127 {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
