package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"deepscan/internal/api"
	"deepscan/internal/config"
	"deepscan/internal/detection"
	"deepscan/internal/forensics"
	"deepscan/internal/history"
	"deepscan/internal/logging"
	"deepscan/internal/models"
)

const shutdownTimeout = 10 * time.Second

// multipart framing allowance on top of the upload limit
const bodySlack = 1 << 20

// Engine is the detection surface the server needs.
type Engine interface {
	api.Detector
	Registry() *models.Registry
	Policy() detection.Policy
}

// Options wires a Server. Config and Engine are required.
type Options struct {
	Config  *config.Config
	Engine  Engine
	History *history.Store
	Logger  *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	engine    Engine
	history   *history.Store
	forensics *forensics.Analyzer
	logger    *slog.Logger
}

// New builds the fiber app and registers every route.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("httpapi: config is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("httpapi: engine is required")
	}
	logger := logging.NewComponentLogger(opts.Logger, "api")

	bodyLimit := opts.Engine.Policy().MaxUploadBytes + bodySlack
	s := &Server{
		cfg:       opts.Config,
		engine:    opts.Engine,
		history:   opts.History,
		forensics: forensics.NewAnalyzer(opts.Logger),
		logger:    logger,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "deepscan " + api.Version,
		ErrorHandler:          errorHandler(logger),
		BodyLimit:             int(bodyLimit),
		DisableStartupMessage: true,
	})
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(recoverMiddleware(s.logger))
	s.app.Use(requestContext())
	s.app.Use(requestLogger(s.logger))

	group := s.app.Group("/api")
	group.Get("/health", s.health)
	group.Get("/info", s.info)
	group.Post("/upload", s.upload)
	group.Get("/report/:name", s.downloadReport)
	group.Get("/history", s.listHistory)
	group.Get("/history/:id", s.showHistory)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()
	s.logger.Info("api listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("addr", addr),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("api stopped", logging.String(logging.FieldEventType, "api_stopped"))
	return <-errCh
}
