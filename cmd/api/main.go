package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/account"
	"github.com/health-dashboard/backend/internal/api"
	"github.com/health-dashboard/backend/internal/api/handlers"
	"github.com/health-dashboard/backend/internal/cache/memory"
	"github.com/health-dashboard/backend/internal/cache/redis"
	"github.com/health-dashboard/backend/internal/dashboard"
	"github.com/health-dashboard/backend/internal/diagnosis"
	"github.com/health-dashboard/backend/internal/documents"
	"github.com/health-dashboard/backend/internal/llm"
	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/internal/middleware/ratelimit"
	"github.com/health-dashboard/backend/internal/middleware/security"
	"github.com/health-dashboard/backend/internal/middleware/validation"
	"github.com/health-dashboard/backend/internal/ocr"
	"github.com/health-dashboard/backend/internal/routing"
	"github.com/health-dashboard/backend/internal/session"
	"github.com/health-dashboard/backend/internal/storage/sqlite"
	"github.com/health-dashboard/backend/pkg/config"
	appLogger "github.com/health-dashboard/backend/pkg/logger"
)

// byteCache is what the route and animation caches share.
type byteCache interface {
	routing.Cache
	dashboard.Cache
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Health Dashboard API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	readiness := map[string]handlers.Pinger{"sqlite": sqliteClient}

	var (
		sessionStore session.Store
		cache        byteCache
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()

		sessionStore = redisClient
		cache = redisClient
		readiness["redis"] = redisClient
	} else {
		appLogger.Info("Redis disabled, keeping sessions in memory")
		memorySessions := session.NewMemoryStore()
		defer memorySessions.Stop()
		memoryCache := memory.New()
		defer memoryCache.Stop()

		sessionStore = memorySessions
		cache = memoryCache
	}

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	sessions := session.NewManager(sessionStore, sessionTTL)

	diagnosisService, err := diagnosis.Load(cfg.Diagnosis.ModelPath, cfg.Diagnosis.TablesDir)
	if err != nil {
		appLogger.Warn("Diagnosis model not loaded, prediction is disabled", zap.Error(err))
		diagnosisService = diagnosis.Unavailable(err)
	}

	osrmClient := routing.NewOSRMClient(cfg.Routing.OSRMBaseURL, time.Duration(cfg.Routing.TimeoutSec)*time.Second)
	routeService := routing.NewService(osrmClient, cache, time.Duration(cfg.Routing.CacheTTLMin)*time.Minute)

	documentService, err := documents.NewService(
		sqliteClient,
		cfg.Uploads.Dir,
		int64(cfg.Uploads.MaxFileBytes),
		cfg.Uploads.AllowedExts,
	)
	if err != nil {
		appLogger.Fatal("Failed to initialize document storage", zap.Error(err))
	}

	var recognizer ocr.Recognizer
	if cfg.OCR.Enabled {
		llmClient := llm.NewClient(llm.Config{
			APIKey:    cfg.OCR.APIKey,
			BaseURL:   cfg.OCR.BaseURL,
			Model:     cfg.OCR.Model,
			MaxTokens: cfg.OCR.MaxTokens,
			Timeout:   time.Duration(cfg.OCR.TimeoutSec) * time.Second,
		})
		recognizer = ocr.NewVisionRecognizer(llmClient)
	} else {
		appLogger.Info("OCR disabled, only blur detection is available")
	}
	ocrService := ocr.NewService(recognizer, cfg.OCR.BlurThreshold, cfg.OCR.MaxPixels)

	var animation *dashboard.AnimationFetcher
	if cfg.Dashboard.AnimationURL != "" {
		animation = dashboard.NewAnimationFetcher(
			cfg.Dashboard.AnimationURL,
			time.Duration(cfg.Dashboard.TimeoutSec)*time.Second,
			cache,
			24*time.Hour,
		)
	}
	dashboardService := dashboard.NewService(animation, rand.NewSource(time.Now().UnixNano()))

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Session-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: !contains(cfg.Server.AllowedOrigins, "*"),
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))
	app.Use(validation.Middleware(validation.Config{
		MaxUploadBytes: cfg.Server.BodyLimit,
		MaxJSONBytes:   cfg.Server.MaxJSONBytes,
		MultipartPaths: []string{"/api/v1/documents", "/api/v1/ocr"},
		Logger:         appLogger.Named("validation"),
	}))
	app.Use(metrics.Middleware())

	authLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.AuthRateLimit,
		Logger:               appLogger.Named("ratelimit"),
	})
	defer authLimiter.Stop()

	api.Register(app, api.Handlers{
		Auth: handlers.NewAuthHandler(account.NewService(sqliteClient, sessions), handlers.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			TTL:    sessionTTL,
		}),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		Diagnosis: handlers.NewDiagnosisHandler(diagnosisService),
		Routes:    handlers.NewRouteHandler(routeService),
		Pose:      handlers.NewPoseHandler(),
		PoseWS:    handlers.NewWebSocketHandler(),
		Exercise:  handlers.NewExerciseHandler(),
		Documents: handlers.NewDocumentHandler(documentService),
		OCR:       handlers.NewOCRHandler(ocrService, int64(cfg.Uploads.MaxFileBytes)),
		Health:    handlers.NewHealthHandler(readiness, map[string]handlers.Pinger{"diagnosis": diagnosisService}),
	}, api.Options{
		Sessions:   sessions,
		CookieName: cfg.Session.CookieName,
		AuthLimit:  authLimiter.Middleware(),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
