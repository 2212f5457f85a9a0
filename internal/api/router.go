package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/health-dashboard/backend/internal/api/handlers"
	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/internal/middleware/auth"
	"github.com/health-dashboard/backend/internal/session"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Diagnosis *handlers.DiagnosisHandler
	Routes    *handlers.RouteHandler
	Pose      *handlers.PoseHandler
	PoseWS    *handlers.WebSocketHandler
	Exercise  *handlers.ExerciseHandler
	Documents *handlers.DocumentHandler
	OCR       *handlers.OCRHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	Sessions   *session.Manager
	CookieName string
	// AuthLimit guards the credential endpoints. Nil disables it.
	AuthLimit fiber.Handler
}

// Register mounts the API under /api/v1. Everything outside /auth and the
// health endpoints requires a session.
func Register(app *fiber.App, h Handlers, opts Options) {
	api := app.Group("/api/v1")

	api.Get("/health", h.Health.Health)
	api.Get("/ready", h.Health.Ready)
	api.Get("/metrics", metrics.MetricsHandler())

	requireSession := auth.RequireSession(opts.Sessions, opts.CookieName)

	authGroup := api.Group("/auth")
	if opts.AuthLimit != nil {
		authGroup.Use(opts.AuthLimit)
	}
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/logout", h.Auth.Logout)
	authGroup.Get("/me", requireSession, h.Auth.Me)

	api.Get("/dashboard", requireSession, h.Dashboard.Get)

	api.Get("/diagnosis/symptoms", requireSession, h.Diagnosis.Symptoms)
	api.Post("/diagnosis/predict", requireSession, h.Diagnosis.Predict)

	api.Get("/routes/locations", requireSession, h.Routes.Locations)
	api.Post("/routes/shortest", requireSession, h.Routes.Shortest)
	api.Get("/routes/last", requireSession, h.Routes.Last)

	api.Get("/pose/exercises", requireSession, h.Pose.Exercises)
	api.Post("/pose/analyze", requireSession, h.Pose.Analyze)
	api.Post("/pose/posture", requireSession, h.Pose.Posture)
	api.Get("/pose/ws", requireSession, h.PoseWS.Upgrade, websocket.New(h.PoseWS.HandleConnection))

	api.Get("/exercise/plan", requireSession, h.Exercise.Plan)

	api.Post("/documents", requireSession, h.Documents.UploadDocuments)
	api.Get("/documents", requireSession, h.Documents.ListDocuments)
	api.Get("/documents/:id/download", requireSession, h.Documents.DownloadDocument)

	api.Post("/ocr", requireSession, h.OCR.Recognize)
}
