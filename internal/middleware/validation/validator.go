package validation

import (
	"bytes"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	// MaxUploadBytes bounds a whole multipart request.
	MaxUploadBytes int
	// MaxJSONBytes bounds a JSON request body.
	MaxJSONBytes int
	// MultipartPaths are path prefixes that only accept multipart uploads.
	MultipartPaths []string
	Logger         *zap.Logger
}

// Middleware checks the shape of write requests before they reach a handler:
// JSON everywhere except the upload endpoints, which take multipart forms.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 50 * 1024 * 1024
	}
	if cfg.MaxJSONBytes == 0 {
		cfg.MaxJSONBytes = 1024 * 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
		multipart := isMultipartPath(c.Path(), cfg.MultipartPaths)

		if multipart {
			if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Expected a multipart/form-data upload",
				})
			}
			if c.Request().Header.ContentLength() > cfg.MaxUploadBytes {
				cfg.Logger.Warn("Upload rejected by size",
					zap.String("ip", c.IP()),
					zap.Int("content_length", c.Request().Header.ContentLength()),
				)
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Upload exceeds maximum size",
				})
			}
			return c.Next()
		}

		body := c.Body()
		if len(body) == 0 {
			return c.Next()
		}
		if !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}
		if len(body) > cfg.MaxJSONBytes {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "Request body exceeds maximum size",
			})
		}
		if bytes.IndexByte(body, 0) >= 0 {
			cfg.Logger.Warn("Request body with NUL byte", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		return c.Next()
	}
}

func isMultipartPath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
