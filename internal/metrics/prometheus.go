package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/health-dashboard/backend/pkg/circuitbreaker"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "health_dashboard_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)

	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_dashboard_auth_attempts_total",
			Help: "Register and login attempts by outcome",
		},
		[]string{"action", "outcome"},
	)

	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "health_dashboard_sessions_created_total",
			Help: "Sessions started by a successful login",
		},
	)

	// SessionsEnded counts logouts that removed a live session, and expiries
	// the in-memory store observed. Redis expiries are not visible here.
	SessionsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_dashboard_sessions_ended_total",
			Help: "Sessions ended by reason",
		},
		[]string{"reason"},
	)

	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_dashboard_predictions_total",
			Help: "Disease predictions by predicted label",
		},
		[]string{"disease"},
	)

	LookupMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_dashboard_lookup_misses_total",
			Help: "Auxiliary table lookups that found no row",
		},
		[]string{"table"},
	)

	RoutesComputed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "health_dashboard_routes_computed_total",
			Help: "Shortest paths computed",
		},
	)

	RoadSegmentFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "health_dashboard_road_segment_failures_total",
			Help: "Road routing calls that failed or returned no route",
		},
	)

	PoseFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_dashboard_pose_frames_total",
			Help: "Pose frames analysed",
		},
		[]string{"mode"},
	)

	RepsCounted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_dashboard_reps_counted_total",
			Help: "Exercise repetitions counted",
		},
		[]string{"exercise"},
	)

	DocumentsUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "health_dashboard_documents_uploaded_total",
			Help: "Medical documents stored",
		},
	)

	OCRRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_dashboard_ocr_requests_total",
			Help: "Text recognition requests by status",
		},
		[]string{"status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_dashboard_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "health_dashboard_circuit_breaker_state",
			Help: "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_dashboard_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AuthAttempts)
		prometheus.MustRegister(SessionsCreated)
		prometheus.MustRegister(SessionsEnded)
		prometheus.MustRegister(Predictions)
		prometheus.MustRegister(LookupMisses)
		prometheus.MustRegister(RoutesComputed)
		prometheus.MustRegister(RoadSegmentFailures)
		prometheus.MustRegister(PoseFrames)
		prometheus.MustRegister(RepsCounted)
		prometheus.MustRegister(DocumentsUploaded)
		prometheus.MustRegister(OCRRequests)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(BreakerState)
	})
}

// BreakerStateChanged is an OnStateChange hook that exports breaker state.
func BreakerStateChanged(name string, _ circuitbreaker.State, to circuitbreaker.State) {
	BreakerState.WithLabelValues(name).Set(float64(to))
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// Middleware records request latency labelled by the matched route pattern,
// which keeps label cardinality bounded.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		RequestDuration.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
