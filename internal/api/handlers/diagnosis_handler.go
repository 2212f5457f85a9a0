package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/diagnosis"
	"github.com/health-dashboard/backend/pkg/logger"
)

type DiagnosisHandler struct {
	diagnosis *diagnosis.Service
}

func NewDiagnosisHandler(d *diagnosis.Service) *DiagnosisHandler {
	return &DiagnosisHandler{diagnosis: d}
}

// Symptoms lists the vocabulary in feature order.
func (h *DiagnosisHandler) Symptoms(c *fiber.Ctx) error {
	if err := h.diagnosis.Ping(c.UserContext()); err != nil {
		return respondError(c, err, "Diagnosis is unavailable")
	}
	return c.JSON(fiber.Map{
		"symptoms": diagnosis.Symptoms,
	})
}

func (h *DiagnosisHandler) Predict(c *fiber.Ctx) error {
	var req struct {
		Symptoms []string `json:"symptoms"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	res, err := h.diagnosis.Diagnose(req.Symptoms)
	if err != nil {
		return respondError(c, err, "Failed to predict disease")
	}

	return c.JSON(res)
}
