package logging

import (
	"context"
	"log/slog"

	"deepscan/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized key for request correlation identifiers.
	FieldRequestID = "request_id"
	// FieldMediaType is the standardized key for the resolved media type.
	FieldMediaType = "media_type"
	// FieldSourceFile is the standardized key for the analyzed path.
	FieldSourceFile = "source_file"
	FieldEventType  = "event_type"
	FieldErrorHint  = "error_hint"
	FieldImpact     = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	if mt, ok := services.MediaTypeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMediaType, mt))
	}
	if src, ok := services.SourceFileFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSourceFile, src))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
