package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/google/uuid"

	"deepscan/internal/detection"
	"deepscan/internal/fileutil"
	"deepscan/internal/forensics"
	"deepscan/internal/history"
	"deepscan/internal/logging"
	"deepscan/internal/report"
)

// Detector is the part of detection.Engine the workflows need.
type Detector interface {
	Detect(ctx context.Context, path string, mediaType detection.MediaType) (*detection.Result, error)
}

type AnalyzeRequest struct {
	Engine Detector
	// Forensics examines images when WithForensics is set. Nil builds one.
	Forensics *forensics.Analyzer
	// History records the run when non-nil.
	History *history.Store
	Logger  *slog.Logger

	Path      string
	MediaType detection.MediaType
	// DisplayName replaces the result filename, e.g. the name an upload was
	// submitted under.
	DisplayName   string
	SHA256        string
	WithForensics bool
	// Metadata is merged into the result metadata before reports are written.
	Metadata map[string]any

	ReportDir     string
	ReportFormats []report.Format
}

type AnalyzeResult struct {
	RunID       string
	SHA256      string
	Result      *detection.Result
	Forensics   *forensics.Report
	Report      *report.Report
	ReportPaths map[report.Format]string
	Record      *history.Record
}

// Detection converts the outcome to its transport form, with report file
// names relative to the report directory.
func (r AnalyzeResult) Detection() Detection {
	out := FromResult(r.Result)
	out.RunID = r.RunID
	out.SHA256 = r.SHA256
	if r.Report != nil {
		out.CaseID = r.Report.CaseID
	}
	out.Forensics = FromForensics(r.Forensics)
	for format, path := range r.ReportPaths {
		name := baseName(path)
		switch format {
		case report.FormatJSON:
			out.JSONReport = name
		case report.FormatHTML:
			out.HTMLReport = name
		case report.FormatYAML:
			out.YAMLReport = name
		}
	}
	return out
}

// Analyze runs detection on one file and performs the requested follow-ups.
// Only a failed detection or report write is returned as an error; forensic
// and history failures are logged and leave the corresponding field nil.
func Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	if req.Engine == nil {
		return AnalyzeResult{}, errors.New("detection engine is required")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	runID := uuid.NewString()
	logger = logger.With(logging.String("run_id", runID))

	result, err := req.Engine.Detect(ctx, req.Path, req.MediaType)
	if err != nil {
		return AnalyzeResult{}, err
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		result.Filename = name
	}
	maps.Copy(result.Metadata, req.Metadata)
	out := AnalyzeResult{RunID: runID, SHA256: req.SHA256, Result: result}

	if req.WithForensics && result.MediaType == detection.MediaImage {
		analyzer := req.Forensics
		if analyzer == nil {
			analyzer = forensics.NewAnalyzer(logger)
		}
		fr, err := analyzer.AnalyzeImage(ctx, req.Path, nil)
		if err != nil {
			logging.WarnWithContext(logger, "forensic examination failed", "forensics_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "report omits forensic section"),
			)
		}
		out.Forensics = fr
	}

	if len(req.ReportFormats) > 0 {
		out.Report = report.New(result, out.Forensics)
		out.ReportPaths = make(map[report.Format]string, len(req.ReportFormats))
		for _, format := range req.ReportFormats {
			path, err := report.Save(req.ReportDir, out.Report, format)
			if err != nil {
				return out, fmt.Errorf("write %s report: %w", format, err)
			}
			out.ReportPaths[format] = path
		}
	}

	if req.History != nil {
		if out.SHA256 == "" {
			if digest, _, err := fileutil.HashFile(req.Path); err == nil {
				out.SHA256 = digest
			}
		}
		record, err := req.History.Save(ctx, runID, result, out.SHA256)
		if err != nil {
			logging.WarnWithContext(logger, "history save failed", "history_save_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run not recorded in history"),
				logging.String(logging.FieldErrorHint, "check paths.history_db permissions"),
			)
		} else {
			out.Record = record
		}
	}

	isFake, confidence := result.Consensus()
	logger.Info("analysis workflow complete",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.String(logging.FieldMediaType, string(result.MediaType)),
		logging.Bool("is_deepfake", isFake),
		logging.Float64("confidence", confidence),
		logging.Int("reports", len(out.ReportPaths)),
		logging.Bool("recorded", out.Record != nil),
	)
	return out, nil
}
