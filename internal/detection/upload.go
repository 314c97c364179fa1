package detection

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"deepscan/internal/services"
)

// ValidateUpload checks an uploaded file's name and size against policy.
func ValidateUpload(filename string, size int64, policy Policy) error {
	if strings.TrimSpace(filename) == "" {
		return uploadError("No filename provided")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" || !slices.Contains(policy.AllowedExtensions, ext) {
		return uploadError("File type not allowed. Allowed types: " + strings.Join(policy.AllowedExtensions, ", "))
	}
	if policy.MaxUploadBytes > 0 && size > policy.MaxUploadBytes {
		return uploadError(fmt.Sprintf("File too large. Maximum size: %d MB", policy.MaxUploadBytes/(1024*1024)))
	}
	if size == 0 {
		return uploadError("File is empty")
	}
	return nil
}

// UploadError is a rejected upload. Its message is shown to the uploader
// verbatim and it matches services.ErrValidation.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string { return e.Message }

func (e *UploadError) Unwrap() error { return services.ErrValidation }

func uploadError(message string) error {
	return &UploadError{Message: message}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a flat ASCII file name safe to join onto an
// upload directory. It returns "" when nothing usable remains.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)
	var ascii strings.Builder
	for _, r := range name {
		if r < 128 {
			ascii.WriteRune(r)
		}
	}
	name = strings.ReplaceAll(ascii.String(), "\\", "/")
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, "/", " ")), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}
