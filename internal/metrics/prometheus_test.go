package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/health-dashboard/backend/pkg/circuitbreaker"
)

func TestBreakerStateChanged(t *testing.T) {
	BreakerStateChanged("osrm", circuitbreaker.StateClosed, circuitbreaker.StateOpen)
	if got := testutil.ToFloat64(BreakerState.WithLabelValues("osrm")); got != float64(circuitbreaker.StateOpen) {
		t.Errorf("breaker state = %v, want %v", got, float64(circuitbreaker.StateOpen))
	}

	BreakerStateChanged("osrm", circuitbreaker.StateOpen, circuitbreaker.StateHalfOpen)
	if got := testutil.ToFloat64(BreakerState.WithLabelValues("osrm")); got != float64(circuitbreaker.StateHalfOpen) {
		t.Errorf("breaker state = %v, want %v", got, float64(circuitbreaker.StateHalfOpen))
	}
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	Init()

	app := fiber.New()
	app.Use(Middleware())
	app.Get("/documents/:id/download", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})
	app.Get("/metrics", MetricsHandler())

	for _, id := range []string{"a", "b", "c"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/documents/"+id+"/download", nil))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	if got := testutil.CollectAndCount(RequestDuration); got != 1 {
		t.Errorf("request duration series = %d, want 1 for one route pattern", got)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `route="/documents/:id/download"`) {
		t.Error("metrics output missing the route pattern label")
	}
}
