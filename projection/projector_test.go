package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
)

func newTestProjector() *Projector {
	p := New()
	p.Register("A", 0, 0, 0)
	p.Register("B", 10, 0, 0)
	p.Register("C", 10, 0, 1)
	return p
}

func TestRegisterMapsFloorToHeight(t *testing.T) {
	p := New(WithScale(2), WithFloorHeight(3.5))
	p.Register("n1", 1.5, 4, 2)

	pt, ok := p.Point("n1")
	require.True(t, ok)
	assert.Equal(t, Point3D{X: 3, Y: 7, Z: 8}, pt)

	p.Register("n1", 0, 0, 0)
	pt, _ = p.Point("n1")
	assert.Equal(t, Point3D{}, pt, "re-registration overwrites")
}

func TestProjectSkipsUnknownNodes(t *testing.T) {
	p := newTestProjector()
	pts := p.Project([]string{"A", "ghost", "C"})
	assert.Equal(t, []Point3D{{0, 0, 0}, {10, 4, 0}}, pts)
}

func TestSmoothInterpolates(t *testing.T) {
	p := newTestProjector()

	pts := p.Smooth([]string{"A", "B"}, 5)
	require.Len(t, pts, 6)
	assert.Equal(t, Point3D{X: 0}, pts[0])
	assert.InDelta(t, 2, pts[1].X, 1e-9)
	assert.InDelta(t, 8, pts[4].X, 1e-9)
	assert.Equal(t, Point3D{X: 10}, pts[5])

	pts = p.Smooth([]string{"A", "B", "C"}, 5)
	assert.Len(t, pts, 11)
	assert.InDelta(t, 0.8, pts[6].Y, 1e-9)
}

func TestSmoothWithOnePointPerSegmentIsProjection(t *testing.T) {
	p := newTestProjector()
	for _, path := range [][]string{
		{"A", "B", "C"},
		{"C", "B", "A", "B"},
		{"A"},
		{},
	} {
		assert.Equal(t, p.Project(path), p.Smooth(path, 1), "%v", path)
	}
}

func TestSmoothDropsSegmentsWithUnknownEndpoints(t *testing.T) {
	p := newTestProjector()
	pts := p.Smooth([]string{"A", "ghost", "B"}, 4)
	// Both segments touch ghost, so only the final node remains.
	assert.Equal(t, []Point3D{{X: 10}}, pts)
}

func TestSegmentsFlagFloorChanges(t *testing.T) {
	p := newTestProjector()

	segs := p.Segments([]string{"A", "B", "C"})
	require.Len(t, segs, 2)
	assert.False(t, segs[0].IsFloorChange)
	assert.Equal(t, "A", segs[0].StartNodeID)
	assert.Equal(t, "B", segs[0].EndNodeID)
	assert.True(t, segs[1].IsFloorChange)
	assert.Equal(t, Point3D{X: 10, Y: 4}, segs[1].End)

	assert.Empty(t, p.Segments([]string{"A"}))
	assert.Empty(t, p.Segments([]string{"A", "ghost"}))
}

func TestRegisterGraph(t *testing.T) {
	g := navgraph.NewGraph()
	_, err := g.AddNode("lobby", 1, 2, -1)
	require.NoError(t, err)

	p := New()
	p.RegisterGraph(g)

	pt, ok := p.Point("lobby")
	require.True(t, ok)
	assert.Equal(t, Point3D{X: 1, Y: -4, Z: 2}, pt)
}
