package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/health-dashboard/backend/internal/dashboard"
	"github.com/health-dashboard/backend/internal/middleware/auth"
)

type DashboardHandler struct {
	dashboard *dashboard.Service
}

func NewDashboardHandler(d *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboard: d}
}

func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Build(c.UserContext(), auth.Current(c)))
}
