package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/pkg/circuitbreaker"
	"github.com/health-dashboard/backend/pkg/logger"
	"github.com/health-dashboard/backend/pkg/retry"
)

var ErrNoRoadRoute = errors.New("road routing service found no route")

// LatLon is a polyline vertex in (latitude, longitude) order.
type LatLon [2]float64

// RoadRouter returns the road polyline between two points.
type RoadRouter interface {
	RoadRoute(ctx context.Context, from, to Location) ([]LatLon, error)
}

// OSRMClient talks to an OSRM-compatible route service.
type OSRMClient struct {
	baseURL     string
	httpClient  *http.Client
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewOSRMClient(baseURL string, timeout time.Duration) *OSRMClient {
	cb := circuitbreaker.NewCircuitBreaker("osrm", circuitbreaker.Config{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 1,
		// A well-formed "no route" answer says nothing about service health.
		IsSuccessful:  func(err error) bool { return err == nil || errors.Is(err, ErrNoRoadRoute) },
		OnStateChange: metrics.BreakerStateChanged,
		Logger:        logger.GetLogger(),
	})

	return &OSRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cb: cb,
		retryConfig: retry.Config{
			MaxAttempts:    3,
			InitialDelay:   200 * time.Millisecond,
			MaxDelay:       2 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			Logger:         logger.GetLogger(),
		},
	}
}

func (c *OSRMClient) RoadRoute(ctx context.Context, from, to Location) ([]LatLon, error) {
	var route []LatLon
	err := c.cb.Execute(ctx, func() error {
		var err error
		route, err = retry.DoWithResult(ctx, c.retryConfig, func() ([]LatLon, error) {
			return c.fetch(ctx, from, to)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (c *OSRMClient) fetch(ctx context.Context, from, to Location) ([]LatLon, error) {
	// OSRM takes lon,lat pairs.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, from.Lon, from.Lat, to.Lon, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query road route: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var routeResp struct {
		Code   string `json:"code"`
		Routes []struct {
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"routes"`
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("road routing returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		// OSRM answers 400 with code NoRoute or NoSegment for unroutable pairs.
		if json.Unmarshal(body, &routeResp) == nil && strings.HasPrefix(routeResp.Code, "No") {
			return nil, retry.Permanent(fmt.Errorf("%w: %s", ErrNoRoadRoute, routeResp.Code))
		}
		return nil, retry.Permanent(fmt.Errorf("road routing returned status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, &routeResp); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}
	if len(routeResp.Routes) == 0 || len(routeResp.Routes[0].Geometry.Coordinates) == 0 {
		return nil, retry.Permanent(ErrNoRoadRoute)
	}

	coords := routeResp.Routes[0].Geometry.Coordinates
	line := make([]LatLon, 0, len(coords))
	for _, p := range coords {
		if len(p) < 2 {
			continue
		}
		line = append(line, LatLon{p[1], p[0]})
	}

	logger.Debug("Road route fetched",
		zap.String("from", from.Name),
		zap.String("to", to.Name),
		zap.Int("points", len(line)),
	)
	return line, nil
}
