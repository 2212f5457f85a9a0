package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/pkg/logger"
)

// Pinger is any dependency whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps     map[string]Pinger
	optional map[string]Pinger
}

// NewHealthHandler gates readiness on deps. A failing optional dependency is
// reported and marks the server degraded, but it stays ready.
func NewHealthHandler(deps, optional map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps, optional: optional}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	checks := make(fiber.Map, len(h.deps)+len(h.optional))
	ready := check(ctx, h.deps, checks)
	complete := check(ctx, h.optional, checks)

	switch {
	case !ready:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"checks": checks,
		})
	case !complete:
		return c.JSON(fiber.Map{
			"status": "degraded",
			"checks": checks,
		})
	}
	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": checks,
	})
}

func check(ctx context.Context, deps map[string]Pinger, checks fiber.Map) bool {
	ok := true
	for name, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = err.Error()
			ok = false
			continue
		}
		checks[name] = "ok"
	}
	return ok
}
