package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrExternalTool     = errors.New("external tool error")
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
	ErrNotFound         = errors.New("not found")
	ErrDecode           = errors.New("decode failure")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrTransient        = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a classified error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnsupportedMedia):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a short machine-readable label for a classified error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrUnsupportedMedia):
		return "UNSUPPORTED_MEDIA"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDecode):
		return "DECODE_ERROR"
	case errors.Is(err, ErrExternalTool):
		return "EXTERNAL_TOOL_ERROR"
	case errors.Is(err, ErrConfiguration):
		return "CONFIGURATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
