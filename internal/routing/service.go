package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/pkg/logger"
	"github.com/health-dashboard/backend/pkg/utils"
)

var ErrNoLastRoute = errors.New("no route computed in this session yet")

// Cache is the byte cache holding each session's last route.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Segment struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Polyline []LatLon `json:"polyline"`
}

type Result struct {
	Start           string    `json:"start"`
	DestinationType string    `json:"destination_type"`
	Destination     string    `json:"destination"`
	Path            Path      `json:"path"`
	Segments        []Segment `json:"segments"`
	Warnings        []string  `json:"warnings,omitempty"`
	ComputedAt      time.Time `json:"computed_at"`
}

type Service struct {
	road     RoadRouter
	cache    Cache
	cacheTTL time.Duration
	graph    func() *Graph
	now      func() time.Time
}

func NewService(road RoadRouter, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{
		road:     road,
		cache:    cache,
		cacheTTL: cacheTTL,
		graph:    func() *Graph { return NewGraph(Locations) },
		now:      time.Now,
	}
}

// ShortestPath answers the logical question only, without road geometry.
func (s *Service) ShortestPath(start, destinationType string) (*Path, error) {
	return s.graph().ShortestPath(start, destinationType)
}

// Route computes the shortest path and attaches a road polyline to every hop.
// A hop whose road route cannot be fetched is left out with a warning.
func (s *Service) Route(ctx context.Context, start, destinationType string) (*Result, error) {
	p, err := s.ShortestPath(start, destinationType)
	if err != nil {
		return nil, err
	}
	metrics.RoutesComputed.Inc()

	res := &Result{
		Start:           start,
		DestinationType: destinationType,
		Destination:     DestinationTypes[destinationType],
		Path:            *p,
		Segments:        []Segment{},
		ComputedAt:      s.now(),
	}

	for i := 0; i+1 < len(p.Nodes); i++ {
		from, _ := LocationByName(p.Nodes[i])
		to, _ := LocationByName(p.Nodes[i+1])

		line, err := s.road.RoadRoute(ctx, from, to)
		if err != nil {
			metrics.RoadSegmentFailures.Inc()
			logger.Warn("Road route unavailable",
				zap.String("from", from.Name),
				zap.String("to", to.Name),
				zap.Error(err),
			)
			res.Warnings = append(res.Warnings, fmt.Sprintf("could not find a road route from %s to %s", from.Name, to.Name))
			continue
		}
		res.Segments = append(res.Segments, Segment{From: from.Name, To: to.Name, Polyline: line})
	}

	logger.Info("Route computed",
		zap.Strings("path", p.Nodes),
		zap.Float64("distance_km", p.DistanceKm),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

func lastRouteKey(sessionID string) string {
	return "route:last:" + utils.HashKey(sessionID)
}

// SaveLast remembers a session's most recent route.
func (s *Service) SaveLast(ctx context.Context, sessionID string, res *Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal route: %w", err)
	}
	if err := s.cache.Set(ctx, lastRouteKey(sessionID), data, s.cacheTTL); err != nil {
		return fmt.Errorf("failed to cache route: %w", err)
	}
	return nil
}

func (s *Service) Last(ctx context.Context, sessionID string) (*Result, error) {
	data, ok, err := s.cache.Get(ctx, lastRouteKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to read cached route: %w", err)
	}
	if !ok {
		metrics.CacheMisses.WithLabelValues("route").Inc()
		return nil, ErrNoLastRoute
	}
	metrics.CacheHits.WithLabelValues("route").Inc()

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached route: %w", err)
	}
	return &res, nil
}
