package routing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	ErrInvalidInput = errors.New("invalid route request")
	ErrNoPath       = errors.New("no path found between the selected locations")
)

// Path is a node sequence through the location graph.
type Path struct {
	Nodes      []string `json:"nodes"`
	DistanceKm float64  `json:"distance_km"`
}

// Graph is the complete location graph weighted by geodesic distance.
type Graph struct {
	g         *simple.WeightedUndirectedGraph
	locations []Location
	ids       map[string]int64
}

func NewGraph(locations []Location) *Graph {
	g := &Graph{
		g:         simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		locations: locations,
		ids:       make(map[string]int64, len(locations)),
	}

	for i, l := range locations {
		g.ids[l.Name] = int64(i)
		g.g.AddNode(simple.Node(i))
	}
	for i := range locations {
		for j := i + 1; j < len(locations); j++ {
			g.g.SetWeightedEdge(g.g.NewWeightedEdge(simple.Node(i), simple.Node(j), Distance(locations[i], locations[j])))
		}
	}
	return g
}

// pair resolves two distinct location names to node ids.
func (g *Graph) pair(a, b string) (int64, int64, error) {
	x, ok := g.ids[a]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown location %q", ErrInvalidInput, a)
	}
	y, ok := g.ids[b]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown location %q", ErrInvalidInput, b)
	}
	if x == y {
		return 0, 0, fmt.Errorf("%w: %q cannot connect to itself", ErrInvalidInput, a)
	}
	return x, y, nil
}

// Connect sets the weight of the edge between two locations.
func (g *Graph) Connect(a, b string, km float64) error {
	x, y, err := g.pair(a, b)
	if err != nil {
		return err
	}
	g.g.SetWeightedEdge(g.g.NewWeightedEdge(simple.Node(x), simple.Node(y), km))
	return nil
}

// Disconnect removes the edge between two locations.
func (g *Graph) Disconnect(a, b string) error {
	x, y, err := g.pair(a, b)
	if err != nil {
		return err
	}
	g.g.RemoveEdge(x, y)
	return nil
}

// Weight returns the weight of the edge between a and b. It reports false
// for unknown names and for missing edges.
func (g *Graph) Weight(a, b string) (float64, bool) {
	x, y, err := g.pair(a, b)
	if err != nil {
		return 0, false
	}
	return g.g.Weight(x, y)
}

// ShortestPath runs Dijkstra from start to the location serving
// destinationType.
func (g *Graph) ShortestPath(start, destinationType string) (*Path, error) {
	from, ok := g.ids[start]
	if !ok {
		return nil, fmt.Errorf("%w: unknown start location %q", ErrInvalidInput, start)
	}
	target, ok := DestinationTypes[destinationType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown destination type %q", ErrInvalidInput, destinationType)
	}
	to, ok := g.ids[target]
	if !ok {
		return nil, fmt.Errorf("%w: destination %q is not on the map", ErrInvalidInput, target)
	}

	shortest := path.DijkstraFrom(simple.Node(from), g.g)
	nodes, weight := shortest.To(to)
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return nil, ErrNoPath
	}

	return &Path{Nodes: g.names(nodes), DistanceKm: weight}, nil
}

func (g *Graph) names(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = g.locations[n.ID()].Name
	}
	return out
}
