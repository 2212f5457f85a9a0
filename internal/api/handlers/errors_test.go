package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/health-dashboard/backend/internal/account"
	"github.com/health-dashboard/backend/internal/diagnosis"
	"github.com/health-dashboard/backend/internal/documents"
	"github.com/health-dashboard/backend/internal/routing"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: age must be between 1 and 120", account.ErrInvalidInput), fiber.StatusBadRequest},
		{"no symptoms", diagnosis.ErrNoSymptoms, fiber.StatusBadRequest},
		{"credentials", account.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{"disease not found", fmt.Errorf("lookup: %w", diagnosis.ErrDiseaseNotFound), fiber.StatusNotFound},
		{"no path", routing.ErrNoPath, fiber.StatusNotFound},
		{"duplicate", account.ErrUsernameTaken, fiber.StatusConflict},
		{"payload missing", fmt.Errorf("%w: a.pdf", documents.ErrFileMissing), fiber.StatusGone},
		{"too large", documents.ErrFileTooLarge, fiber.StatusRequestEntityTooLarge},
		{"model not loaded", diagnosis.Unavailable(errors.New("no such file")).Ping(context.Background()), fiber.StatusServiceUnavailable},
		{"fiber error", fiber.ErrUpgradeRequired, fiber.StatusUpgradeRequired},
		{"unexpected", errors.New("disk on fire"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("secret connection string"), "Failed to do the thing")
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return respondError(c, fmt.Errorf("%w: weight must be between 1 and 200 kg", account.ErrInvalidInput), "unused")
	})

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/boom", fiber.StatusInternalServerError, `{"error":"Failed to do the thing"}`},
		{"/bad", fiber.StatusBadRequest, `{"error":"weight must be between 1 and 200 kg"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			data, _ := io.ReadAll(resp.Body)
			if got := string(data); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}
