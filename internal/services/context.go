package services

import "context"

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	mediaTypeKey  contextKey = "media_type"
	sourceFileKey contextKey = "source_file"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithMediaType annotates context with the resolved media type of the file under analysis.
func WithMediaType(ctx context.Context, mediaType string) context.Context {
	if mediaType == "" {
		return ctx
	}
	return context.WithValue(ctx, mediaTypeKey, mediaType)
}

// MediaTypeFromContext returns the media type if present.
func MediaTypeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(mediaTypeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSourceFile annotates context with the path being analyzed.
func WithSourceFile(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceFileKey, path)
}

// SourceFileFromContext returns the analyzed path if present.
func SourceFileFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sourceFileKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
