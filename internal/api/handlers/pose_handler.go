package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/pose"
	"github.com/health-dashboard/backend/pkg/logger"
)

// maxAnalyzeFrames bounds one recorded sequence; about a minute at 30 fps.
// config.DefaultMaxJSONBytes is sized so a full sequence passes validation.
const maxAnalyzeFrames = 2000

type PoseHandler struct{}

func NewPoseHandler() *PoseHandler {
	return &PoseHandler{}
}

func (h *PoseHandler) Exercises(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"exercises": pose.Exercises,
	})
}

// Analyze counts reps over a recorded sequence of frames.
func (h *PoseHandler) Analyze(c *fiber.Ctx) error {
	var req struct {
		Exercise string       `json:"exercise"`
		Frames   []pose.Frame `json:"frames"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Frames) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one frame is required",
		})
	}
	if len(req.Frames) > maxAnalyzeFrames {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Too many frames in one request",
		})
	}

	summary, err := pose.Analyze(c.UserContext(), req.Exercise, req.Frames)
	if err != nil {
		return respondError(c, err, "Failed to analyze frames")
	}

	return c.JSON(summary)
}

func (h *PoseHandler) Posture(c *fiber.Ctx) error {
	var frame pose.Frame
	if err := c.BodyParser(&frame); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	res, err := pose.CheckPosture(frame)
	if err != nil {
		return respondError(c, err, "Failed to check posture")
	}

	return c.JSON(res)
}
