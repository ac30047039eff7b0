// Package navgraph holds the in-memory topology of a building: nodes with
// planar coordinates and a floor index, symmetric weighted edges, and an
// index of named locations.
//
// A Graph is built once per request (or once per cached snapshot version) and
// is read-only afterwards, so it carries no locks.
package navgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
)

var (
	ErrDuplicateNode    = errors.New("navgraph: node already exists")
	ErrNodeNotFound     = errors.New("navgraph: node not found")
	ErrNegativeDistance = errors.New("navgraph: edge distance is negative")
	ErrLocationNotFound = errors.New("navgraph: named location not found")
)

// Node is a navigable point (room, junction, stairwell, elevator).
type Node struct {
	ID        string
	X         float64
	Y         float64
	Floor     int
	Neighbors map[string]float64 // neighbor id -> distance

	sortedNeighbors []string
}

// NeighborIDs returns neighbor ids in ascending order. The slice is shared;
// callers must not modify it.
func (n *Node) NeighborIDs() []string {
	return n.sortedNeighbors
}

func (n *Node) link(id string, distance float64) {
	if _, ok := n.Neighbors[id]; !ok {
		i := sort.SearchStrings(n.sortedNeighbors, id)
		n.sortedNeighbors = append(n.sortedNeighbors, "")
		copy(n.sortedNeighbors[i+1:], n.sortedNeighbors[i:])
		n.sortedNeighbors[i] = id
	}
	n.Neighbors[id] = distance
}

type Graph struct {
	nodes     map[string]*Node
	locations map[string]string // name -> node id
}

func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		locations: make(map[string]string),
	}
}

// AddNode inserts a node. Duplicate ids are a caller bug and fail fast.
func (g *Graph) AddNode(id string, x, y float64, floor int) (*Node, error) {
	if _, ok := g.nodes[id]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, id)
	}
	n := &Node{
		ID:        id,
		X:         x,
		Y:         y,
		Floor:     floor,
		Neighbors: make(map[string]float64),
	}
	g.nodes[id] = n
	return n, nil
}

// AddEdge connects id1 and id2 in both directions with the same distance.
// Re-adding a pair overwrites its distance.
func (g *Graph) AddEdge(id1, id2 string, distance float64) error {
	if distance < 0 {
		return fmt.Errorf("%w: %s-%s %.2f", ErrNegativeDistance, id1, id2, distance)
	}
	a, ok := g.nodes[id1]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id1)
	}
	b, ok := g.nodes[id2]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id2)
	}
	a.link(id2, distance)
	b.link(id1, distance)
	return nil
}

// AddNamedLocation registers a name for a node; the last registration wins.
func (g *Graph) AddNamedLocation(name, id string) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: %q for location %q", ErrNodeNotFound, id, name)
	}
	g.locations[name] = id
	return nil
}

// ResolveLocation looks up a named location.
func (g *Graph) ResolveLocation(name string) (*Node, error) {
	id, ok := g.locations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, name)
	}
	return g.nodes[id], nil
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Neighbors returns the sorted neighbor ids of a node, or nil when the node
// is unknown.
func (g *Graph) Neighbors(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return n.NeighborIDs()
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all node ids sorted.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Locations returns a copy of the name index.
func (g *Graph) Locations() map[string]string {
	out := make(map[string]string, len(g.locations))
	for k, v := range g.locations {
		out[k] = v
	}
	return out
}

func (g *Graph) Len() int { return len(g.nodes) }

// FromRecords builds a graph from persistence records. Rooms that carry a
// name become named locations.
func FromRecords(bg *models.BuildingGraph) (*Graph, error) {
	if err := bg.Validate(); err != nil {
		return nil, err
	}

	g := NewGraph()
	for _, n := range bg.Nodes {
		if _, err := g.AddNode(n.NodeID, n.X, n.Y, n.FloorNumber); err != nil {
			return nil, err
		}
		if n.NodeType == models.Room && n.Name != "" {
			if err := g.AddNamedLocation(n.Name, n.NodeID); err != nil {
				return nil, err
			}
		}
	}
	for _, e := range bg.Edges {
		if err := g.AddEdge(e.Node1ID, e.Node2ID, e.Distance); err != nil {
			return nil, fmt.Errorf("building %s: %w", bg.BuildingID, err)
		}
	}
	return g, nil
}
