// Package projection maps node paths onto the building's 3D model: planar
// x/y become model x/z and the floor index becomes height.
package projection

import (
	"math"
	"sync"

	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
)

const (
	DefaultScale       = 1.0
	DefaultFloorHeight = 4.0

	// floorChangeTolerance absorbs float noise on same-floor segments.
	floorChangeTolerance = 0.1
)

type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Lerp returns the point a fraction t of the way from p to q.
func (p Point3D) Lerp(q Point3D, t float64) Point3D {
	return Point3D{
		X: p.X + t*(q.X-p.X),
		Y: p.Y + t*(q.Y-p.Y),
		Z: p.Z + t*(q.Z-p.Z),
	}
}

type Segment struct {
	Start         Point3D `json:"start"`
	End           Point3D `json:"end"`
	IsFloorChange bool    `json:"is_floor_change"`
	StartNodeID   string  `json:"start_node_id"`
	EndNodeID     string  `json:"end_node_id"`
}

type Option func(*Projector)

func WithScale(scale float64) Option {
	return func(p *Projector) { p.scale = scale }
}

func WithFloorHeight(h float64) Option {
	return func(p *Projector) { p.floorHeight = h }
}

// Projector holds the registered model position of every node.
type Projector struct {
	scale       float64
	floorHeight float64

	mu     sync.RWMutex
	points map[string]Point3D
}

func New(opts ...Option) *Projector {
	p := &Projector{
		scale:       DefaultScale,
		floorHeight: DefaultFloorHeight,
		points:      make(map[string]Point3D),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register stores a node's model position, replacing any earlier one.
func (p *Projector) Register(id string, x, y float64, floor int) {
	pt := Point3D{
		X: x * p.scale,
		Y: float64(floor) * p.floorHeight,
		Z: y * p.scale,
	}
	p.mu.Lock()
	p.points[id] = pt
	p.mu.Unlock()
}

func (p *Projector) RegisterGraph(g *navgraph.Graph) {
	for _, id := range g.Nodes() {
		n := g.Node(id)
		p.Register(n.ID, n.X, n.Y, n.Floor)
	}
}

// Point returns the registered position of a node.
func (p *Projector) Point(id string) (Point3D, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pt, ok := p.points[id]
	return pt, ok
}

// Project looks up each node of path. Unregistered ids are skipped.
func (p *Projector) Project(path []string) []Point3D {
	out := make([]Point3D, 0, len(path))
	for _, id := range path {
		if pt, ok := p.Point(id); ok {
			out = append(out, pt)
		}
	}
	return out
}

// Smooth emits each segment's start followed by pointsPerSegment-1
// interpolated points, then the path's last node. Segments with an
// unregistered endpoint are dropped.
func (p *Projector) Smooth(path []string, pointsPerSegment int) []Point3D {
	if len(path) < 2 {
		return p.Project(path)
	}
	if pointsPerSegment < 1 {
		pointsPerSegment = 1
	}

	out := make([]Point3D, 0, (len(path)-1)*pointsPerSegment+1)
	for i := 0; i+1 < len(path); i++ {
		start, ok1 := p.Point(path[i])
		end, ok2 := p.Point(path[i+1])
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, start)
		for j := 1; j < pointsPerSegment; j++ {
			out = append(out, start.Lerp(end, float64(j)/float64(pointsPerSegment)))
		}
	}
	if last, ok := p.Point(path[len(path)-1]); ok {
		out = append(out, last)
	}
	return out
}

// Segments describes each consecutive pair of path whose endpoints are both
// registered.
func (p *Projector) Segments(path []string) []Segment {
	if len(path) < 2 {
		return []Segment{}
	}
	out := make([]Segment, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		start, ok1 := p.Point(path[i])
		end, ok2 := p.Point(path[i+1])
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, Segment{
			Start:         start,
			End:           end,
			IsFloorChange: math.Abs(start.Y-end.Y) > floorChangeTolerance,
			StartNodeID:   path[i],
			EndNodeID:     path[i+1],
		})
	}
	return out
}
