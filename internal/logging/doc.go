// Package logging assembles structured slog loggers and formatting helpers used
// across deepscan.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so analyzers automatically tag
// log lines with request IDs, media types, and source paths. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
