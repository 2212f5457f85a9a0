package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/ocr"
	"github.com/health-dashboard/backend/pkg/logger"
)

const imageField = "image"

type OCRHandler struct {
	ocr      *ocr.Service
	maxBytes int64
}

func NewOCRHandler(svc *ocr.Service, maxBytes int64) *OCRHandler {
	return &OCRHandler{ocr: svc, maxBytes: maxBytes}
}

// Recognize reads the "image" form file and returns the recognized text,
// blur verdict, annotated image and keyword analysis.
func (h *OCRHandler) Recognize(c *fiber.Ctx) error {
	fh, err := c.FormFile(imageField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Please upload an image",
		})
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "Image exceeds the upload size limit",
		})
	}

	f, err := fh.Open()
	if err != nil {
		logger.Error("Failed to open uploaded image", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read image",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		logger.Error("Failed to read uploaded image", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read image",
		})
	}

	res, err := h.ocr.Process(c.UserContext(), data)
	if err != nil {
		return respondError(c, err, "Failed to process image")
	}

	return c.JSON(res)
}
