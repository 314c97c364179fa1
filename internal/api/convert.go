package api

import (
	"time"

	"deepscan/internal/deps"
	"deepscan/internal/detection"
	"deepscan/internal/forensics"
	"deepscan/internal/history"
	"deepscan/internal/models"
)

// FromResult converts a detection result into its transport form. Status is
// "success" unless the result carries an error marker.
func FromResult(result *detection.Result) Detection {
	if result == nil {
		return Detection{Status: "error"}
	}
	summary := result.Summary()
	out := Detection{
		Status:           "success",
		Filename:         summary.Filename,
		MediaType:        string(summary.MediaType),
		IsDeepfake:       summary.IsDeepfake,
		Confidence:       summary.AverageConfidence,
		ModelPredictions: summary.ModelPredictions,
		ModelConfidences: summary.ModelConfidences,
		Metadata:         summary.Metadata,
		AnalysisDetails:  summary.AnalysisDetails,
	}
	if msg := result.Error(); msg != "" {
		out.Status = "error"
		out.Error = msg
	}
	return out
}

// FromForensics condenses a forensic report. Nil yields nil.
func FromForensics(fr *forensics.Report) *ForensicSummary {
	if fr == nil {
		return nil
	}
	flags := fr.Flags()
	if flags == nil {
		flags = []string{}
	}
	return &ForensicSummary{Flags: flags, EXIF: len(fr.Metadata), Errors: fr.Errors}
}

// FromRecord converts a stored run.
func FromRecord(rec *history.Record) HistoryEntry {
	return HistoryEntry{
		ID:         rec.ID,
		Filename:   rec.Filename,
		MediaType:  rec.MediaType,
		IsDeepfake: rec.IsDeepfake,
		Confidence: rec.Confidence,
		SHA256:     rec.SHA256,
		Error:      rec.Error,
		CreatedAt:  FormatTime(rec.CreatedAt),
	}
}

// FromRecords converts a slice of stored runs, never returning nil.
func FromRecords(records []*history.Record) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, FromRecord(rec))
		}
	}
	return out
}

// FromModelInfo converts registry information.
func FromModelInfo(infos []models.Info) []ModelStatus {
	out := make([]ModelStatus, 0, len(infos))
	for _, info := range infos {
		out = append(out, ModelStatus{
			Name:        info.Name,
			Description: info.Description,
			Device:      info.Device.String(),
			State:       string(info.State),
			Checkpoint:  info.Checkpoint,
			Parameters:  info.Parameters,
		})
	}
	return out
}

// BuildSystemInfo describes the registry for the info endpoint. Inference
// always runs on the CPU, so CUDAAvailable stays false whatever device is
// configured.
func BuildSystemInfo(registry *models.Registry) SystemInfo {
	info := SystemInfo{Version: Version, ModelsLoaded: []string{}, Models: []ModelStatus{}}
	if registry == nil {
		info.Device = models.DeviceCPU.String()
		return info
	}
	info.Device = registry.Device().String()
	info.ModelsLoaded = registry.List()
	info.Models = FromModelInfo(registry.Info())
	return info
}

// FromDependencyStatuses converts binary availability reports.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
