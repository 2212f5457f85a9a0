package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/health-dashboard/backend/internal/exercise"
)

type ExerciseHandler struct{}

func NewExerciseHandler() *ExerciseHandler {
	return &ExerciseHandler{}
}

// Plan answers GET /exercise/plan?goal=&level=. Without both parameters it
// lists the accepted values instead.
func (h *ExerciseHandler) Plan(c *fiber.Ctx) error {
	goal, level := c.Query("goal"), c.Query("level")
	if goal == "" && level == "" {
		return c.JSON(fiber.Map{
			"goals":  exercise.Goals,
			"levels": exercise.Levels,
		})
	}

	items, err := exercise.Plan(goal, level)
	if err != nil {
		return respondError(c, err, "Failed to build plan")
	}

	return c.JSON(fiber.Map{
		"goal":        goal,
		"level":       level,
		"exercises":   items,
		"placeholder": exercise.Placeholder(goal),
	})
}
