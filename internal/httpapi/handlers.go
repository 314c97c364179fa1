package httpapi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"deepscan/internal/api"
	"deepscan/internal/deps"
	"deepscan/internal/detection"
	"deepscan/internal/fileutil"
	"deepscan/internal/forensics"
	"deepscan/internal/logging"
	"deepscan/internal/report"
)

const defaultHistoryLimit = 50

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

func (s *Server) info(c *fiber.Ctx) error {
	info := api.BuildSystemInfo(s.engine.Registry())
	info.Dependencies = api.FromDependencyStatuses(deps.CheckMediaTools(s.cfg.FFmpegBinary(), s.cfg.FFprobeBinary()))
	return c.JSON(info)
}

func (s *Server) upload(c *fiber.Ctx) error {
	ctx := c.UserContext()
	logger := logging.WithContext(ctx, s.logger)
	policy := s.engine.Policy()

	header, err := c.FormFile("file")
	if err != nil {
		return &detection.UploadError{Message: "No file provided"}
	}
	mediaType, err := detection.ParseMediaType(c.FormValue("media_type"))
	if err != nil {
		return err
	}
	withForensics, _ := strconv.ParseBool(strings.TrimSpace(c.FormValue("forensics")))

	if err := detection.ValidateUpload(header.Filename, header.Size, policy); err != nil {
		return err
	}
	safeName := detection.SecureFilename(header.Filename)
	if safeName == "" {
		return &detection.UploadError{Message: "Invalid filename"}
	}

	uploadDir := s.cfg.Paths.UploadDir
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}
	stored := filepath.Join(uploadDir, strings.ReplaceAll(uuid.NewString(), "-", "")[:12]+"_"+safeName)
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	digest, size, err := fileutil.WriteHashed(stored, src, policy.MaxUploadBytes)
	src.Close()
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	if !s.cfg.Upload.KeepUploads {
		defer func() {
			if err := os.Remove(stored); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Debug("upload cleanup failed", logging.Error(err))
			}
		}()
	}

	extra := map[string]any{}
	if headers, err := forensics.AnalyzeFileHeaders(stored); err == nil && headers.ExtensionMismatch {
		extra["content_type_mismatch"] = headers.DetectedExtension
		logging.WarnWithContext(logger, "upload content does not match its extension", "upload_type_mismatch",
			logging.String(logging.FieldSourceFile, safeName),
			logging.String("detected", headers.DetectedExtension),
			logging.String(logging.FieldImpact, "analysed by declared type"),
		)
	}

	logger.Info("running detection on upload",
		logging.String(logging.FieldEventType, "upload_received"),
		logging.String(logging.FieldSourceFile, safeName),
		logging.Int64("size", size),
	)
	out, err := api.Analyze(ctx, api.AnalyzeRequest{
		Engine:        s.engine,
		Forensics:     s.forensics,
		History:       s.history,
		Logger:        logger,
		Path:          stored,
		MediaType:     mediaType,
		DisplayName:   safeName,
		SHA256:        digest,
		WithForensics: withForensics,
		Metadata:      extra,
		ReportDir:     s.cfg.Paths.ReportDir,
		ReportFormats: []report.Format{report.FormatJSON, report.FormatHTML},
	})
	if err != nil {
		return err
	}
	return c.JSON(out.Detection())
}

func (s *Server) downloadReport(c *fiber.Ctx) error {
	name := detection.SecureFilename(c.Params("name"))
	if name == "" {
		return fiber.NewError(fiber.StatusNotFound, "Report not found")
	}
	path := filepath.Join(s.cfg.Paths.ReportDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fiber.NewError(fiber.StatusNotFound, "Report not found")
	}
	return c.Download(path, name)
}

func (s *Server) listHistory(c *fiber.Ctx) error {
	if s.history == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "History is disabled")
	}
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must not be negative")
	}
	records, err := s.history.List(c.UserContext(), limit)
	if err != nil {
		return err
	}
	runs := api.FromRecords(records)
	return c.JSON(fiber.Map{"runs": runs, "count": len(runs)})
}

func (s *Server) showHistory(c *fiber.Ctx) error {
	if s.history == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "History is disabled")
	}
	record, err := s.history.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if record == nil {
		return fiber.NewError(fiber.StatusNotFound, "Run not found")
	}
	return c.JSON(fiber.Map{
		"run":    api.FromRecord(record),
		"result": api.FromResult(record.Result()),
	})
}
