package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/health-dashboard/backend/internal/cache/memory"
)

type fakeRoad struct {
	fail  map[string]bool
	calls []string
}

func (f *fakeRoad) RoadRoute(_ context.Context, from, to Location) ([]LatLon, error) {
	key := from.Name + "->" + to.Name
	f.calls = append(f.calls, key)
	if f.fail[key] {
		return nil, errors.New("connection refused")
	}
	return []LatLon{{from.Lat, from.Lon}, {to.Lat, to.Lon}}, nil
}

func TestRouteDirect(t *testing.T) {
	road := &fakeRoad{}
	svc := NewService(road, memory.New(), time.Hour)

	res, err := svc.Route(context.Background(), "Ambulance", "Neurology")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if res.Destination != "Neurology Specialty" {
		t.Errorf("Destination = %q", res.Destination)
	}
	if len(res.Segments) != len(res.Path.Nodes)-1 {
		t.Errorf("%d segments for path %v", len(res.Segments), res.Path.Nodes)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v", res.Warnings)
	}
}

func TestRouteSegmentFailureKeepsPath(t *testing.T) {
	road := &fakeRoad{}
	svc := NewService(road, memory.New(), time.Hour)
	svc.graph = func() *Graph {
		g := NewGraph(Locations)
		g.Disconnect("Ambulance", "Heart Care Center")
		return g
	}

	p, err := svc.ShortestPath("Ambulance", "Cardiology")
	if err != nil {
		t.Fatalf("ShortestPath() error = %v", err)
	}
	road.fail = map[string]bool{p.Nodes[0] + "->" + p.Nodes[1]: true}

	res, err := svc.Route(context.Background(), "Ambulance", "Cardiology")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if len(res.Path.Nodes) != 3 {
		t.Fatalf("path = %v, want 3 nodes", res.Path.Nodes)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", res.Warnings)
	}
	if len(res.Segments) != 1 || res.Segments[0].From != p.Nodes[1] {
		t.Errorf("Segments = %+v, want only the second hop", res.Segments)
	}
	if len(road.calls) != 2 {
		t.Errorf("road calls = %v, want both hops attempted", road.calls)
	}
}

func TestRouteInvalidInput(t *testing.T) {
	svc := NewService(&fakeRoad{}, memory.New(), time.Hour)
	if _, err := svc.Route(context.Background(), "Ambulance", "Podiatry"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Route() error = %v, want ErrInvalidInput", err)
	}
}

func TestLastRoutePerSession(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeRoad{}, memory.New(), time.Hour)

	if _, err := svc.Last(ctx, "s1"); !errors.Is(err, ErrNoLastRoute) {
		t.Fatalf("Last() before any route error = %v, want ErrNoLastRoute", err)
	}

	res, err := svc.Route(ctx, "Ambulance", "General Hospital")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if err := svc.SaveLast(ctx, "s1", res); err != nil {
		t.Fatalf("SaveLast() error = %v", err)
	}

	got, err := svc.Last(ctx, "s1")
	if err != nil {
		t.Fatalf("Last() error = %v", err)
	}
	if got.Destination != "General Hospital" || len(got.Path.Nodes) != len(res.Path.Nodes) {
		t.Errorf("Last() = %+v", got)
	}

	if _, err := svc.Last(ctx, "s2"); !errors.Is(err, ErrNoLastRoute) {
		t.Errorf("Last() for another session error = %v, want ErrNoLastRoute", err)
	}
}
