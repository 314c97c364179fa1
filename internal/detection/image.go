package detection

import (
	"context"
	"fmt"
	"log/slog"

	"deepscan/internal/logging"
	"deepscan/internal/media/raster"
	"deepscan/internal/models"
)

// ImageAnalyzer scores still images with every available image model.
type ImageAnalyzer struct {
	registry *models.Registry
	policy   Policy
	logger   *slog.Logger
}

// NewImageAnalyzer builds an analyzer over registry.
func NewImageAnalyzer(registry *models.Registry, policy Policy, logger *slog.Logger) *ImageAnalyzer {
	return &ImageAnalyzer{
		registry: registry,
		policy:   policy,
		logger:   logging.NewComponentLogger(logger, "image_analyzer"),
	}
}

// Analyze decodes path and scores it. Decode failures are reported through
// the result's error marker.
func (a *ImageAnalyzer) Analyze(ctx context.Context, path string) *Result {
	result := a.policy.newResult(MediaImage, path)
	logger := logging.WithContext(ctx, a.logger)

	img, err := raster.Read(path)
	if err != nil {
		result.SetError("Failed to read image")
		result.Metadata["error_detail"] = err.Error()
		logging.WarnWithContext(logger, "image decode failed", "image_decode_failed",
			logging.String(logging.FieldSourceFile, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no image predictions for this file"),
			logging.String(logging.FieldErrorHint, "confirm the file is a readable JPEG, PNG, GIF, BMP, TIFF, or WebP"),
		)
		return result
	}
	if md, err := raster.ReadMetadata(path); err == nil {
		result.Metadata = md.Map()
	} else {
		result.Metadata = map[string]any{"width": img.Width, "height": img.Height, "channels": 3}
		result.Metadata["metadata_error"] = err.Error()
	}

	a.ScoreImage(ctx, img, result)
	return result
}

// ScoreImage runs the image models over an already-decoded raster and adds
// their predictions to result.
func (a *ImageAnalyzer) ScoreImage(ctx context.Context, img *raster.Image, result *Result) {
	logger := logging.WithContext(ctx, a.logger)
	tensor := models.TensorFromImage(img, a.policy.InputSize)
	modelErrors := map[string]string{}

	for _, name := range ImageModels {
		if err := ctx.Err(); err != nil {
			result.Metadata["interrupted"] = true
			break
		}
		scorer, ok := a.registry.Get(name)
		if !ok {
			continue
		}
		confidence, err := scoreSafely(scorer, tensor)
		if err != nil {
			modelErrors[name] = err.Error()
			logging.WarnWithContext(logger, "model scoring failed", "model_score_failed",
				logging.String("model", name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "model excluded from consensus"),
			)
			continue
		}
		result.AddPrediction(name, confidence > a.policy.ConfidenceThreshold, confidence, nil)
	}
	if len(modelErrors) > 0 {
		result.AnalysisDetails["model_errors"] = modelErrors
	}
	a.locateFace(tensor, result)
	logger.Debug("image scored",
		logging.Int("predictions", result.Len()),
		logging.Int("model_errors", len(modelErrors)),
	)
}

// locateFace adds face_detection diagnostics when the registry carries a face
// detector. It never adds a prediction.
func (a *ImageAnalyzer) locateFace(tensor models.Tensor, result *Result) {
	scorer, ok := a.registry.Get(models.KindFaceDetection)
	if !ok {
		return
	}
	detector, ok := scorer.(models.FaceDetector)
	if !ok {
		return
	}
	face, err := detector.DetectFace(tensor)
	if err != nil {
		a.logger.Debug("face detection failed", logging.Error(err))
		return
	}
	result.AnalysisDetails[models.KindFaceDetection] = map[string]any{
		"confidence": face.Confidence,
		"box":        []float64{face.X, face.Y, face.Width, face.Height},
	}
}

// Score runs one scorer over img after the standard resize and normalisation.
func (a *ImageAnalyzer) Score(scorer models.Scorer, img *raster.Image) (float64, error) {
	return scoreSafely(scorer, models.TensorFromImage(img, a.policy.InputSize))
}

// scoreSafely converts a scorer panic into an error.
func scoreSafely(scorer models.Scorer, tensor models.Tensor) (confidence float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scorer panic: %v", rec)
		}
	}()
	confidence, err = scorer.Score(tensor)
	if err != nil {
		return 0, err
	}
	if confidence < 0 || confidence > 1 || confidence != confidence {
		return 0, fmt.Errorf("score %v outside [0, 1]", confidence)
	}
	return confidence, nil
}
