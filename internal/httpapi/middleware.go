package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"deepscan/internal/detection"
	"deepscan/internal/logging"
	"deepscan/internal/services"
)

func errorResponse(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return errorResponse(c, fiberErr.Code, statusCode(fiberErr.Code), fiberErr.Message)
		}

		var uploadErr *detection.UploadError
		if errors.As(err, &uploadErr) {
			return errorResponse(c, fiber.StatusBadRequest, services.Code(err), uploadErr.Message)
		}

		status := services.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			logging.ErrorWithContext(logging.WithContext(c.UserContext(), logger), "request failed", "request_failed",
				logging.Error(err),
				logging.String("path", c.Path()),
			)
			return errorResponse(c, status, services.Code(err), "An unexpected error occurred")
		}
		return errorResponse(c, status, services.Code(err), err.Error())
	}
}

func recoverMiddleware(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.ErrorWithContext(logger, "panic recovered", "request_panic",
					logging.String("panic", fmt.Sprint(r)),
					logging.String("path", c.Path()),
					logging.String("method", c.Method()),
				)
				err = errorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
			}
		}()
		return c.Next()
	}
}

// requestContext copies the request ID into the user context so analyzers
// log it.
func requestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
			c.SetUserContext(services.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		logging.WithContext(c.UserContext(), logger).Log(c.UserContext(), level, "http request",
			logging.String("method", c.Method()),
			logging.String("path", c.Path()),
			logging.Int("status", status),
			logging.Duration("latency", time.Since(start)),
			logging.String("ip", c.IP()),
		)
		return err
	}
}

func statusCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "VALIDATION_ERROR"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusServiceUnavailable:
		return "UNAVAILABLE"
	default:
		return "HTTP_ERROR"
	}
}
