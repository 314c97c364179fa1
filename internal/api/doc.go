// Package api holds the workflows and wire-format types shared by the CLI and
// the HTTP server. It runs a detection end to end (analysis, optional forensic
// examination, report files, history) and translates internal results into
// transport-friendly DTOs.
//
// # Workflows
//
// Analyze: detect one file, optionally examine it forensically, write the
// requested report formats, and record the run in history.
//
// # Converters
//
// FromResult: detection.Result -> Detection.
//
// FromRecord/FromRecords: history.Record -> HistoryEntry.
//
// FromModelInfo: models.Info -> ModelStatus.
//
// # Design Notes
//
// DTOs use snake_case JSON tags, matching the report files. Timestamps use
// RFC3339 with milliseconds.
package api
