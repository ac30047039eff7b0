// Package pathfinding finds the cheapest route through a building graph when
// every edge's distance is inflated by the congestion on it.
package pathfinding

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
)

var (
	ErrNodeNotFound = errors.New("pathfinding: start or goal not in graph")
	ErrNoPath       = errors.New("pathfinding: no path between start and goal")
)

// DefaultFloorHeight is the vertical distance the heuristic assigns to one floor.
const DefaultFloorHeight = 5.0

// Snapshot is a read-only view of edge congestion for one search.
type Snapshot map[congestion.EdgeKey]float64

// Rate returns the congestion on the edge a-b, 0 when unknown.
func (s Snapshot) Rate(a, b string) float64 {
	return s[congestion.NewEdgeKey(a, b)]
}

// Route is a search result. An empty Path means no route.
type Route struct {
	Path []string
	Cost float64
}

type options struct {
	floorHeight float64
	dijkstra    bool
}

type Option func(*options)

func WithFloorHeight(h float64) Option {
	return func(o *options) { o.floorHeight = h }
}

// WithDijkstra drops the heuristic. Results are then optimal under any
// congestion, at the price of expanding more nodes.
func WithDijkstra() Option {
	return func(o *options) { o.dijkstra = true }
}

// EdgeCost scales a distance by congestion: a fully congested edge costs 3x.
func EdgeCost(distance, rate float64) float64 {
	return distance * (1 + rate*2)
}

// Heuristic is the straight-line distance between two nodes with one floor
// counted as floorHeight vertically.
func Heuristic(a, b *navgraph.Node, floorHeight float64) float64 {
	horizontal := math.Hypot(a.X-b.X, a.Y-b.Y)
	vertical := math.Abs(float64(a.Floor-b.Floor)) * floorHeight
	return math.Hypot(horizontal, vertical)
}

// FindRoute runs A* from start to goal. The snapshot is only read.
func FindRoute(g *navgraph.Graph, startID, goalID string, snapshot Snapshot, opts ...Option) (Route, error) {
	o := options{floorHeight: DefaultFloorHeight}
	for _, opt := range opts {
		opt(&o)
	}

	start, goal := g.Node(startID), g.Node(goalID)
	if start == nil || goal == nil {
		return Route{}, fmt.Errorf("%w: %s -> %s", ErrNodeNotFound, startID, goalID)
	}

	heuristic := func(id string) float64 {
		if o.dijkstra {
			return 0
		}
		return Heuristic(g.Node(id), goal, o.floorHeight)
	}

	gScore := map[string]float64{startID: 0}
	cameFrom := make(map[string]string)
	closed := make(map[string]bool)

	seq := 0
	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{node: startID, f: heuristic(startID), sequence: seq})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		current := item.node
		if closed[current] {
			continue
		}
		if current == goalID {
			return Route{Path: reconstructPath(cameFrom, current), Cost: gScore[current]}, nil
		}
		closed[current] = true

		node := g.Node(current)
		for _, neighbor := range node.NeighborIDs() {
			if closed[neighbor] {
				continue
			}
			tentative := gScore[current] + EdgeCost(node.Neighbors[neighbor], snapshot.Rate(current, neighbor))
			if old, ok := gScore[neighbor]; !ok || tentative < old {
				cameFrom[neighbor] = current
				gScore[neighbor] = tentative
				seq++
				heap.Push(pq, &pqItem{
					node:     neighbor,
					f:        tentative + heuristic(neighbor),
					g:        tentative,
					sequence: seq,
				})
			}
		}
	}

	return Route{}, fmt.Errorf("%w: %s -> %s", ErrNoPath, startID, goalID)
}

// PathCost sums the congested cost of consecutive edges on path. It fails if
// two consecutive nodes are not connected.
func PathCost(g *navgraph.Graph, path []string, snapshot Snapshot) (float64, error) {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		a := g.Node(path[i])
		if a == nil {
			return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, path[i])
		}
		d, ok := a.Neighbors[path[i+1]]
		if !ok {
			return 0, fmt.Errorf("pathfinding: %s and %s are not adjacent", path[i], path[i+1])
		}
		total += EdgeCost(d, snapshot.Rate(path[i], path[i+1]))
	}
	return total, nil
}

func reconstructPath(cameFrom map[string]string, current string) []string {
	path := []string{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append(path, prev)
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
