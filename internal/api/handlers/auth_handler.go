package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/account"
	"github.com/health-dashboard/backend/internal/middleware/auth"
	"github.com/health-dashboard/backend/pkg/logger"
)

type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	accounts *account.Service
	cookie   CookieConfig
}

func NewAuthHandler(accounts *account.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		cookie:   cookie,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req account.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	acc, err := h.accounts.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, "Failed to register")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Registration successful! Please login.",
		"username": acc.Username,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sess, err := h.accounts.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err, "Failed to log in")
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    sess.ID,
		Path:     "/",
		Expires:  time.Now().Add(h.cookie.TTL),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	return c.JSON(fiber.Map{
		"message": "Login successful!",
		"session": sess,
	})
}

// Logout destroys whatever session the request carries. It succeeds even
// without one.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.accounts.Logout(c.UserContext(), auth.SessionID(c, h.cookie.Name)); err != nil {
		return respondError(c, err, "Failed to log out")
	}

	c.ClearCookie(h.cookie.Name)
	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"session": auth.Current(c),
	})
}
