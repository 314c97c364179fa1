// Package report renders detection results as JSON, YAML, or HTML case files.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"deepscan/internal/detection"
	"deepscan/internal/forensics"
	"deepscan/internal/services"
)

// Format selects a report encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatHTML}
}

// ParseFormat accepts a format name or file extension.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", services.Wrap(services.ErrValidation, "report", "parse format",
			fmt.Sprintf("unsupported report format %q (use json, yaml, or html)", value), nil)
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string { return string(f) }

// now is replaced in tests.
var now = time.Now

// Report is a single case file.
type Report struct {
	CaseID      string            `json:"case_id" yaml:"case_id"`
	GeneratedAt time.Time         `json:"generation_timestamp" yaml:"generation_timestamp"`
	Analysis    detection.Summary `json:"analysis" yaml:"analysis"`
	Forensics   *forensics.Report `json:"forensics,omitempty" yaml:"forensics,omitempty"`
}

// New builds a case report for result. fr may be nil when no forensic
// examination was run.
func New(result *detection.Result, fr *forensics.Report) *Report {
	generated := now()
	return &Report{
		CaseID:      newCaseID(generated),
		GeneratedAt: generated,
		Analysis:    result.Summary(),
		Forensics:   fr,
	}
}

func newCaseID(at time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("CASE-%s-%s", at.Format("20060102150405"), strings.ToUpper(id[:8]))
}

// Write encodes the report to w.
func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatHTML:
		return writeHTML(w, r)
	default:
		return services.Wrap(services.ErrValidation, "report", "write",
			fmt.Sprintf("unsupported report format %q", format), nil)
	}
}

// FileName returns the report file name for a media file analysed at the
// given time.
func FileName(filename string, format Format, at time.Time) string {
	base := strings.ReplaceAll(filename, "/", "_")
	return fmt.Sprintf("%s_%s.%s", base, at.Format("20060102_150405"), format.Ext())
}

// Save writes the report into dir and returns the created path.
func Save(dir string, r *Report, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "report", "create directory",
			"Failed to create report directory", err)
	}
	path := filepath.Join(dir, FileName(r.Analysis.Filename, format, r.GeneratedAt))
	file, err := os.Create(path)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "report", "create file",
			"Failed to create report file", err)
	}
	if err := r.Write(file, format); err != nil {
		file.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}
