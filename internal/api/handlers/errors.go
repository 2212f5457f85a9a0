package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/account"
	"github.com/health-dashboard/backend/internal/diagnosis"
	"github.com/health-dashboard/backend/internal/documents"
	"github.com/health-dashboard/backend/internal/exercise"
	"github.com/health-dashboard/backend/internal/ocr"
	"github.com/health-dashboard/backend/internal/pose"
	"github.com/health-dashboard/backend/internal/routing"
	"github.com/health-dashboard/backend/internal/session"
	"github.com/health-dashboard/backend/pkg/logger"
)

var statusByError = []struct {
	err    error
	status int
}{
	{account.ErrInvalidInput, fiber.StatusBadRequest},
	{diagnosis.ErrNoSymptoms, fiber.StatusBadRequest},
	{diagnosis.ErrUnknownSymptom, fiber.StatusBadRequest},
	{routing.ErrInvalidInput, fiber.StatusBadRequest},
	{pose.ErrUnknownExercise, fiber.StatusBadRequest},
	{pose.ErrUnknownMode, fiber.StatusBadRequest},
	{pose.ErrMissingLandmarks, fiber.StatusBadRequest},
	{exercise.ErrInvalidInput, fiber.StatusBadRequest},
	{documents.ErrInvalidFile, fiber.StatusBadRequest},
	{ocr.ErrInvalidImage, fiber.StatusBadRequest},
	{documents.ErrFileTooLarge, fiber.StatusRequestEntityTooLarge},
	{account.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{session.ErrNotFound, fiber.StatusUnauthorized},
	{diagnosis.ErrDiseaseNotFound, fiber.StatusNotFound},
	{documents.ErrDocumentNotFound, fiber.StatusNotFound},
	{routing.ErrNoPath, fiber.StatusNotFound},
	{routing.ErrNoLastRoute, fiber.StatusNotFound},
	{account.ErrUsernameTaken, fiber.StatusConflict},
	{documents.ErrFileMissing, fiber.StatusGone},
	{ocr.ErrDisabled, fiber.StatusServiceUnavailable},
	{diagnosis.ErrUnavailable, fiber.StatusServiceUnavailable},
}

// statusFor maps a domain error to its HTTP status. Unrecognised errors are
// internal.
func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// respondError writes the JSON error envelope. Client errors carry the error
// text; internal ones are logged and replaced with fallback.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error(fallback, zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{
			"error": fallback,
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": clientMessage(err),
	})
}

// clientMessage strips the sentinel prefix from validation errors so the
// caller sees only the detail, e.g. "age must be between 1 and 120".
func clientMessage(err error) string {
	msg := err.Error()
	for _, prefix := range []string{account.ErrInvalidInput.Error() + ": ", routing.ErrInvalidInput.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}

// ErrorHandler renders errors that escape a handler, panics recovered by the
// recover middleware included.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return respondError(c, err, "Internal server error")
}
