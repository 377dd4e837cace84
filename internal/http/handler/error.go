package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pdfblur/internal/http/middleware"
	"pdfblur/internal/page"
	"pdfblur/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates service and pipeline errors to the envelope.
// Validation messages are produced by this module and safe to return.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "job not found")
	case errors.Is(err, service.ErrPageOutOfRange):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "page not found")
	case errors.Is(err, service.ErrNoOutput):
		return writeError(c, fiber.StatusNotFound, "NO_OUTPUT", "job has no redacted output yet")
	case errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload limit")
	case errors.Is(err, service.ErrInvalidRequest):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
	case errors.Is(err, page.ErrInvalidZone):
		return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_ZONE", err.Error())
	case errors.Is(err, page.ErrEmptyDocument):
		return writeError(c, fiber.StatusUnprocessableEntity, "EMPTY_DOCUMENT", "document has no pages")
	case errors.Is(err, page.ErrDecode):
		return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_DOCUMENT", "document cannot be decoded as PDF")
	default:
		slog.ErrorContext(c.UserContext(), "request failed",
			"request_id", middleware.GetRequestID(c),
			"path", c.Path(),
			"error", err,
		)
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
