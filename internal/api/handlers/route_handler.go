package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/middleware/auth"
	"github.com/health-dashboard/backend/internal/routing"
	"github.com/health-dashboard/backend/pkg/logger"
)

type RouteHandler struct {
	routes *routing.Service
}

func NewRouteHandler(routes *routing.Service) *RouteHandler {
	return &RouteHandler{routes: routes}
}

func (h *RouteHandler) Locations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"locations":         routing.Locations,
		"destination_types": routing.DestinationTypeNames(),
	})
}

func (h *RouteHandler) Shortest(c *fiber.Ctx) error {
	var req struct {
		Start           string `json:"start"`
		DestinationType string `json:"destination_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	res, err := h.routes.Route(c.UserContext(), req.Start, req.DestinationType)
	if err != nil {
		return respondError(c, err, "Failed to compute route")
	}

	if err := h.routes.SaveLast(c.UserContext(), auth.Current(c).ID, res); err != nil {
		logger.Warn("Failed to remember route", zap.Error(err))
	}

	return c.JSON(res)
}

// Last returns the most recent route computed in this session.
func (h *RouteHandler) Last(c *fiber.Ctx) error {
	res, err := h.routes.Last(c.UserContext(), auth.Current(c).ID)
	if err != nil {
		return respondError(c, err, "Failed to load route")
	}
	return c.JSON(res)
}
