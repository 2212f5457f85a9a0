package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/session"
	"github.com/health-dashboard/backend/pkg/logger"
)

const (
	HeaderSessionID = "X-Session-ID"
	localsSession   = "session"
)

// SessionID reads the session identifier from the cookie, falling back to
// the X-Session-ID header for non-browser clients.
func SessionID(c *fiber.Ctx, cookieName string) string {
	if id := c.Cookies(cookieName); id != "" {
		return id
	}
	return c.Get(HeaderSessionID)
}

// RequireSession rejects requests without a live session and stores the
// session in the request locals.
func RequireSession(sessions *session.Manager, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := sessions.Get(c.UserContext(), SessionID(c, cookieName))
		if errors.Is(err, session.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Please log in to continue",
			})
		}
		if err != nil {
			logger.Error("Failed to load session", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load session",
			})
		}

		c.Locals(localsSession, s)
		return c.Next()
	}
}

// Current returns the session placed by RequireSession.
func Current(c *fiber.Ctx) *session.Session {
	s, _ := c.Locals(localsSession).(*session.Session)
	return s
}
