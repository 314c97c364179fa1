package detection

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"deepscan/internal/logging"
	"deepscan/internal/media/raster"
	"deepscan/internal/media/video"
)

// FrameSource reads video properties and sampled frames.
type FrameSource interface {
	Properties(ctx context.Context, path string) (video.Properties, error)
	ExtractFrames(ctx context.Context, path string, sampleRate int) ([]*raster.Image, error)
}

// FrameAggregate summarises per-frame verdicts.
type FrameAggregate struct {
	NumFrames      int
	NumFake        int
	FakeFrameRatio float64
	MeanConfidence float64
	IsDeepfake     bool
}

// AggregateFrames computes K/N and the mean confidence over N scored frames.
// The video is fake when K/N is strictly above ratioThreshold. N = 0 yields
// the zero aggregate.
func AggregateFrames(predictions []bool, confidences []float64, ratioThreshold float64) FrameAggregate {
	n := len(predictions)
	if n == 0 {
		return FrameAggregate{}
	}
	fake := 0
	for _, p := range predictions {
		if p {
			fake++
		}
	}
	ratio := float64(fake) / float64(n)
	return FrameAggregate{
		NumFrames:      n,
		NumFake:        fake,
		FakeFrameRatio: ratio,
		MeanConfidence: stat.Mean(confidences, nil),
		IsDeepfake:     ratio > ratioThreshold,
	}
}

// VideoAnalyzer scores sampled frames with the primary classifier and
// aggregates them over time.
type VideoAnalyzer struct {
	frames FrameSource
	images *ImageAnalyzer
	policy Policy
	logger *slog.Logger
}

// NewVideoAnalyzer builds an analyzer reading frames from frames and scoring
// them through images.
func NewVideoAnalyzer(frames FrameSource, images *ImageAnalyzer, policy Policy, logger *slog.Logger) *VideoAnalyzer {
	return &VideoAnalyzer{
		frames: frames,
		images: images,
		policy: policy,
		logger: logging.NewComponentLogger(logger, "video_analyzer"),
	}
}

// Analyze samples every n-th frame of path and adds a frame_analysis
// prediction. No frames sets the "Failed to extract frames" marker.
// Cancellation between frames keeps the frames already scored.
func (a *VideoAnalyzer) Analyze(ctx context.Context, path string) *Result {
	result := a.policy.newResult(MediaVideo, path)
	logger := logging.WithContext(ctx, a.logger)

	if props, err := a.frames.Properties(ctx, path); err != nil {
		result.Metadata["properties_error"] = err.Error()
		logger.Debug("video properties unavailable", logging.Error(err))
	} else {
		result.Metadata = props.Map()
	}

	frames, err := a.frames.ExtractFrames(ctx, path, a.policy.FrameSampleRate)
	if len(frames) == 0 {
		result.SetError("Failed to extract frames")
		attrs := []logging.Attr{
			logging.String(logging.FieldSourceFile, path),
			logging.String(logging.FieldImpact, "no video prediction for this file"),
		}
		if err != nil {
			result.Metadata["error_detail"] = err.Error()
			attrs = append(attrs, logging.Error(err))
		}
		logging.WarnWithContext(logger, "frame extraction produced no frames", "frame_extraction_failed", attrs...)
		return result
	}
	if err != nil {
		result.Metadata["frame_extraction_warning"] = err.Error()
		logging.WarnWithContext(logger, "frame extraction truncated", "frame_extraction_truncated",
			logging.Int("frames", len(frames)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "verdict uses the frames decoded before the failure"),
		)
	}

	scorer, ok := a.images.registry.Get(FrameModel)
	if !ok {
		logger.Info("frame model not registered", logging.String("model", FrameModel))
		return result
	}

	predictions := make([]bool, 0, len(frames))
	confidences := make([]float64, 0, len(frames))
	failed := 0
	for _, frame := range frames {
		if ctx.Err() != nil {
			result.Metadata["interrupted"] = true
			break
		}
		confidence, err := a.images.Score(scorer, frame)
		if err != nil {
			failed++
			logger.Debug("frame scoring failed", logging.Error(err))
			continue
		}
		predictions = append(predictions, confidence > a.policy.ConfidenceThreshold)
		confidences = append(confidences, confidence)
	}
	if failed > 0 {
		result.AnalysisDetails["model_errors"] = map[string]any{FrameModel: failed}
	}
	if len(predictions) == 0 {
		return result
	}

	agg := AggregateFrames(predictions, confidences, a.policy.FakeFrameRatio)
	result.AddPrediction("frame_analysis", agg.IsDeepfake, agg.MeanConfidence, map[string]any{
		"num_frames_analyzed": agg.NumFrames,
		"num_fake_frames":     agg.NumFake,
		"fake_frame_ratio":    agg.FakeFrameRatio,
	})
	result.AnalysisDetails["temporal_consistency"] = map[string]any{
		"frame_predictions": predictions,
		"frame_confidences": confidences,
	}
	logger.Info("video analyzed",
		logging.String(logging.FieldEventType, "video_analyzed"),
		logging.Int("frames", agg.NumFrames),
		logging.Int("fake_frames", agg.NumFake),
		logging.Float64("fake_frame_ratio", agg.FakeFrameRatio),
	)
	return result
}
