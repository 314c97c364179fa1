package preflight

import (
	"context"
	"path/filepath"

	"deepscan/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckReadableDirectory("Model directory", cfg.Paths.ModelDir))
	results = append(results, CheckCheckpoints(cfg.Paths.ModelDir))

	results = append(results, CheckDirectoryAccess("Report directory", cfg.Paths.ReportDir))
	results = append(results, CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)))
	}

	if ctx.Err() != nil {
		return results
	}
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail + "; video and audio analysis unavailable"
		}
		results = append(results, result)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
