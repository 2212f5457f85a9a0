package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/documents"
	"github.com/health-dashboard/backend/internal/middleware/auth"
	"github.com/health-dashboard/backend/internal/storage/models"
	"github.com/health-dashboard/backend/pkg/logger"
)

const uploadField = "files"

type DocumentHandler struct {
	documents *documents.Service
}

func NewDocumentHandler(docs *documents.Service) *DocumentHandler {
	return &DocumentHandler{
		documents: docs,
	}
}

// UploadDocuments stores every file in the "files" form field. Files are
// saved independently; the response lists the stored ones and the reason each
// rejected one failed.
func (h *DocumentHandler) UploadDocuments(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		logger.Error("Failed to parse multipart form", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid multipart form",
		})
	}

	files := form.File[uploadField]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Please select at least one file",
		})
	}

	username := auth.Current(c).Username
	saved := make([]*models.MedicalDocument, 0, len(files))
	var failed []string
	var firstErr error

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return respondError(c, fmt.Errorf("failed to open upload: %w", err), "Failed to read upload")
		}

		doc, err := h.documents.Save(c.UserContext(), username, fh.Filename, f)
		f.Close()
		if err != nil {
			if statusFor(err) >= fiber.StatusInternalServerError {
				return respondError(c, err, "Failed to store document")
			}
			if firstErr == nil {
				firstErr = err
			}
			failed = append(failed, err.Error())
			continue
		}
		saved = append(saved, doc)
	}

	if len(saved) == 0 {
		return respondError(c, firstErr, "Failed to store document")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   fmt.Sprintf("%d file(s) uploaded successfully", len(saved)),
		"documents": saved,
		"rejected":  failed,
	})
}

func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	docs, err := h.documents.List(c.UserContext(), auth.Current(c).Username)
	if err != nil {
		return respondError(c, err, "Failed to list documents")
	}
	if docs == nil {
		docs = []models.MedicalDocument{}
	}

	return c.JSON(fiber.Map{
		"documents": docs,
	})
}

// DownloadDocument streams a stored file back to its owner.
func (h *DocumentHandler) DownloadDocument(c *fiber.Ctx) error {
	doc, f, err := h.documents.Open(c.UserContext(), auth.Current(c).Username, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to open document")
	}

	c.Attachment(doc.FileName)
	if doc.FileType != "" {
		c.Set(fiber.HeaderContentType, doc.FileType)
	}
	// The response stream closes f once the body is written.
	return c.SendStream(f, int(doc.Size))
}
