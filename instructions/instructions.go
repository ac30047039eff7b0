// Package instructions turns a node path into spoken turn-by-turn steps.
package instructions

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
)

// Incomplete is the single instruction returned for a path that has no edge.
const Incomplete = "无法生成导航指令，路径不完整"

func point(n *navgraph.Node) orb.Point {
	return orb.Point{n.X, n.Y}
}

// Generate returns one instruction per edge of path. Floor changes name the
// target floor; same-floor moves name the dominant compass direction, with
// +x east and +y north.
func Generate(g *navgraph.Graph, path []string) []string {
	if len(path) < 2 {
		return []string{Incomplete}
	}

	steps := make([]string, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		cur, next := g.Node(path[i]), g.Node(path[i+1])
		if cur == nil || next == nil {
			continue
		}
		steps = append(steps, step(cur, next))
	}
	if len(steps) == 0 {
		return []string{Incomplete}
	}
	return steps
}

func step(cur, next *navgraph.Node) string {
	dist := fmt.Sprintf("%.1f米", planar.Distance(point(cur), point(next)))

	switch {
	case cur.Floor < next.Floor:
		return fmt.Sprintf("向前走%s，然后上楼梯到%d楼", dist, next.Floor)
	case cur.Floor > next.Floor:
		return fmt.Sprintf("向前走%s，然后下楼梯到%d楼", dist, next.Floor)
	}

	dx, dy := next.X-cur.X, next.Y-cur.Y
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return "向东走" + dist
		}
		return "向西走" + dist
	}
	if dy > 0 {
		return "向北走" + dist
	}
	return "向南走" + dist
}

// Length is the planar length of the path, ignoring floor changes and
// unknown nodes.
func Length(g *navgraph.Graph, path []string) float64 {
	ls := make(orb.LineString, 0, len(path))
	for _, id := range path {
		if n := g.Node(id); n != nil {
			ls = append(ls, point(n))
		}
	}
	return planar.Length(ls)
}
