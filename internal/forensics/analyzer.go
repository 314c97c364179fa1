package forensics

import (
	"context"
	"log/slog"
	"path/filepath"

	"deepscan/internal/logging"
	"deepscan/internal/media/raster"
	"deepscan/internal/services"
)

// Report is the full forensic examination of one image file. Sections that
// could not be produced are left nil and explained in Errors.
type Report struct {
	Metadata       map[string]string    `json:"metadata" yaml:"metadata"`
	FileProperties *FileProperties      `json:"file_properties,omitempty" yaml:"file_properties,omitempty"`
	FileHeaders    *FileHeaders         `json:"file_headers,omitempty" yaml:"file_headers,omitempty"`
	Compression    *CompressionAnalysis `json:"compression_analysis,omitempty" yaml:"compression_analysis,omitempty"`
	Noise          *NoiseAnalysis       `json:"noise_analysis,omitempty" yaml:"noise_analysis,omitempty"`
	Color          *ColorAnalysis       `json:"color_analysis,omitempty" yaml:"color_analysis,omitempty"`
	Edges          *EdgeAnalysis        `json:"edge_analysis,omitempty" yaml:"edge_analysis,omitempty"`
	Lighting       *LightingAnalysis    `json:"lighting_analysis,omitempty" yaml:"lighting_analysis,omitempty"`
	Shadow         *ShadowAnalysis      `json:"shadow_analysis,omitempty" yaml:"shadow_analysis,omitempty"`
	Errors         map[string]string    `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Flags lists the names of the heuristics that fired.
func (r *Report) Flags() []string {
	var flags []string
	add := func(ok bool, name string) {
		if ok {
			flags = append(flags, name)
		}
	}
	if r.Compression != nil {
		add(r.Compression.LikelyCompressed, "likely_compressed")
	}
	if r.Noise != nil {
		add(r.Noise.UnnaturalNoise, "unnatural_noise")
	}
	if r.Color != nil {
		add(r.Color.UnnaturalColors, "unnatural_colors")
	}
	if r.Edges != nil {
		add(r.Edges.SuspiciousEdges, "suspicious_edges")
	}
	if r.Lighting != nil {
		add(r.Lighting.InconsistentLighting, "inconsistent_lighting")
	}
	if r.Shadow != nil {
		add(r.Shadow.ExtremeShadowHighlight, "extreme_shadow_highlight")
	}
	if r.FileHeaders != nil {
		add(r.FileHeaders.ExtensionMismatch, "extension_mismatch")
	}
	return flags
}

func (r *Report) fail(section string, err error) {
	if r.Errors == nil {
		r.Errors = map[string]string{}
	}
	r.Errors[section] = err.Error()
}

// Analyzer runs every heuristic against an image file.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer builds an Analyzer that logs through logger.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{logger: logging.NewComponentLogger(logger, "forensics")}
}

// AnalyzeImage examines the file at path. img may be a raster the caller
// already decoded; nil decodes the file. Only a missing file is returned as an
// error, other failures are recorded in the report.
func (a *Analyzer) AnalyzeImage(ctx context.Context, path string, img *raster.Image) (*Report, error) {
	props, err := ReadFileProperties(path)
	if err != nil {
		return nil, err
	}
	report := &Report{FileProperties: &props}
	logger := a.logger.With(logging.String(logging.FieldSourceFile, filepath.Base(path)))

	tags, err := ExtractEXIF(path)
	report.Metadata = tags
	if err != nil {
		report.fail("metadata", err)
		logger.Debug("exif unavailable", logging.Error(err))
	}
	if headers, err := AnalyzeFileHeaders(path); err != nil {
		report.fail("file_headers", err)
	} else {
		report.FileHeaders = &headers
	}

	if img == nil {
		img, err = raster.Read(path)
		if err != nil {
			report.fail("image", services.Wrap(services.ErrDecode, "forensics", "load", "Failed to load image", err))
			logging.WarnWithContext(logger, "forensic image load failed", "forensics_load_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "pixel heuristics skipped"),
			)
			return report, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	gray := img.Gray()
	compression := DetectCompressionArtifacts(gray)
	noise := DetectNoiseInconsistencies(gray)
	color := DetectColorInconsistencies(img)
	edges := DetectEdgeInconsistencies(gray)
	lighting := AnalyzeLightingConsistency(gray)
	shadow := DetectShadowInconsistencies(gray)
	report.Compression = &compression
	report.Noise = &noise
	report.Color = &color
	report.Edges = &edges
	report.Lighting = &lighting
	report.Shadow = &shadow

	logger.Info("forensic analysis complete",
		logging.String(logging.FieldEventType, "forensics_complete"),
		logging.Int("width", img.Width),
		logging.Int("height", img.Height),
		logging.Any("flags", report.Flags()),
	)
	return report, nil
}
