package detection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"deepscan/internal/config"
	"deepscan/internal/logging"
	"deepscan/internal/media/audio"
	"deepscan/internal/media/video"
	"deepscan/internal/models"
	"deepscan/internal/services"
)

// Options wires an Engine. Registry, Frames, and Waveforms are required.
type Options struct {
	Registry  *models.Registry
	Frames    FrameSource
	Waveforms WaveformSource
	Policy    Policy
	Logger    *slog.Logger
}

// Engine dispatches files to the analyzer for their media type.
type Engine struct {
	registry *models.Registry
	policy   Policy
	images   *ImageAnalyzer
	videos   *VideoAnalyzer
	audio    *AudioAnalyzer
	logger   *slog.Logger
}

// New builds an engine from explicit collaborators.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	images := NewImageAnalyzer(opts.Registry, opts.Policy, logger)
	return &Engine{
		registry: opts.Registry,
		policy:   opts.Policy,
		images:   images,
		videos:   NewVideoAnalyzer(opts.Frames, images, opts.Policy, logger),
		audio:    NewAudioAnalyzer(opts.Waveforms, opts.Policy, logger),
		logger:   logging.NewComponentLogger(logger, "engine"),
	}
}

// NewFromConfig loads every model from the configured directory and decodes
// media through the configured ffmpeg and ffprobe.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	device, err := models.ParseDevice(cfg.Detection.Device)
	if err != nil {
		return nil, err
	}
	registry := models.NewRegistry(device, logger)
	registry.LoadAll(cfg.Paths.ModelDir)
	policy := PolicyFromConfig(cfg)
	return New(Options{
		Registry:  registry,
		Frames:    video.NewReader(cfg.FFmpegBinary(), cfg.FFprobeBinary(), policy.MaxFrames, logger),
		Waveforms: audio.NewReader(cfg.FFmpegBinary(), cfg.FFprobeBinary(), policy.AudioSampleRate, logger),
		Policy:    policy,
		Logger:    logger,
	}), nil
}

// Registry exposes the model registry owned by the engine.
func (e *Engine) Registry() *models.Registry { return e.registry }

// Policy returns the thresholds in force.
func (e *Engine) Policy() Policy { return e.policy }

// Detect analyzes path as mediaType, resolving it from the extension when
// empty. An unresolvable type returns ErrUnsupportedMedia and no result.
func (e *Engine) Detect(ctx context.Context, path string, mediaType MediaType) (*Result, error) {
	if mediaType == "" {
		mediaType = ResolveMediaType(path)
	}
	ctx = services.WithSourceFile(ctx, path)
	ctx = services.WithMediaType(ctx, string(mediaType))
	logger := logging.WithContext(ctx, e.logger)

	start := time.Now()
	var result *Result
	switch mediaType {
	case MediaImage:
		result = e.images.Analyze(ctx, path)
	case MediaVideo:
		result = e.videos.Analyze(ctx, path)
	case MediaAudio:
		result = e.audio.Analyze(ctx, path)
	default:
		return nil, services.Wrap(services.ErrUnsupportedMedia, "detection", "resolve",
			fmt.Sprintf("cannot determine media type of %s", filepath.Base(path)), nil)
	}

	isFake, confidence := result.Consensus()
	logger.Info("detection complete",
		logging.String(logging.FieldEventType, "detection_complete"),
		logging.Bool("is_deepfake", isFake),
		logging.Float64("confidence", confidence),
		logging.Int("predictions", result.Len()),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// BatchDetect analyzes every path in order. Errors and panics become unknown
// results carrying the message, and never stop the batch.
func (e *Engine) BatchDetect(ctx context.Context, paths []string) []*Result {
	results := make([]*Result, 0, len(paths))
	for _, path := range paths {
		results = append(results, e.detectIsolated(ctx, path))
	}
	return results
}

func (e *Engine) detectIsolated(ctx context.Context, path string) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("analysis panic: %v", rec)
			logging.ErrorWithContext(e.logger, "batch item panicked", "batch_item_panic",
				logging.String(logging.FieldSourceFile, path),
				logging.Error(err),
			)
			result = FailureResult(path, err)
		}
	}()
	if err := ctx.Err(); err != nil {
		return FailureResult(path, err)
	}
	r, err := e.Detect(ctx, path, "")
	if err != nil {
		logging.WarnWithContext(e.logger, "batch item failed", "batch_item_failed",
			logging.String(logging.FieldSourceFile, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "item reported as unknown; batch continues"),
		)
		return FailureResult(path, err)
	}
	return r
}

// FailureResult is the unknown-type result that stands in for a file that
// could not be analyzed.
func FailureResult(path string, err error) *Result {
	r := NewResult(MediaUnknown, path)
	message := "analysis failed"
	if err != nil {
		message = err.Error()
	}
	r.SetError(message)
	if err != nil {
		r.Metadata["error_code"] = services.Code(err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.Metadata["interrupted"] = true
		}
	}
	return r
}
