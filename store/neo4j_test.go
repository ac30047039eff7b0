package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers queries by the labels they mention.
type fakeRunner struct {
	mu      sync.Mutex
	queries []string
	params  []map[string]interface{}

	nodes    []*neo4j.Record
	edges    []*neo4j.Record
	building []*neo4j.Record
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.params = append(f.params, params)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	switch {
	case strings.Contains(query, connectsType):
		return &neo4j.EagerResult{Records: f.edges}, nil
	case strings.Contains(query, buildingLabel):
		return &neo4j.EagerResult{Records: f.building}, nil
	default:
		return &neo4j.EagerResult{Records: f.nodes}, nil
	}
}

func navNode(id string, floor int64, x, y float64, nodeType, name string) neo4j.Node {
	return neo4j.Node{
		ElementId: "e-" + id,
		Labels:    []string{nodeLabel},
		Props: map[string]any{
			"node_id":      id,
			"building_id":  "b1",
			"floor_number": floor,
			"x":            x,
			"y":            y,
			"node_type":    nodeType,
			"name":         name,
		},
	}
}

func TestNeo4jStoreBuildingGraph(t *testing.T) {
	lobby := navNode("n1", 1, 0, 0, "room", "1楼大厅")
	stairs := navNode("n2", 1, 10, 0, "staircase", "")
	runner := &fakeRunner{
		nodes: []*neo4j.Record{
			{Keys: []string{"n"}, Values: []any{lobby}},
			{Keys: []string{"n"}, Values: []any{stairs}},
		},
		edges: []*neo4j.Record{{
			Keys: []string{"a", "r", "b"},
			Values: []any{
				lobby,
				neo4j.Relationship{Type: connectsType, Props: map[string]any{"distance": int64(10), "edge_type": "hallway"}},
				stairs,
			},
		}},
		building: []*neo4j.Record{{
			Keys:   []string{"b"},
			Values: []any{neo4j.Node{Props: map[string]any{"building_id": "b1", "version": int64(7)}}},
		}},
	}

	bg, err := NewNeo4jStore(runner).BuildingGraph(context.Background(), "b1")
	require.NoError(t, err)

	assert.Equal(t, int64(7), bg.Version)
	require.Len(t, bg.Nodes, 2)
	assert.Equal(t, "1楼大厅", bg.Nodes[0].Name)
	assert.Equal(t, "stairs", string(bg.Nodes[1].NodeType))
	require.Len(t, bg.Edges, 1)
	assert.Equal(t, 10.0, bg.Edges[0].Distance)
	assert.Equal(t, "n1", bg.Edges[0].Node1ID)
	assert.Equal(t, "n2", bg.Edges[0].Node2ID)
	assert.Len(t, runner.queries, 3)
}

func TestNeo4jStoreMissingBuilding(t *testing.T) {
	_, err := NewNeo4jStore(&fakeRunner{}).BuildingGraph(context.Background(), "b1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNeo4jStorePropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewNeo4jStore(&fakeRunner{err: boom}).BuildingGraph(context.Background(), "b1")
	assert.ErrorIs(t, err, boom)
}

func versionRecord(v int64) []*neo4j.Record {
	return []*neo4j.Record{{
		Keys:   []string{"b"},
		Values: []any{neo4j.Node{Props: map[string]any{"building_id": "b1", "version": v}}},
	}}
}

// setVersion returns the value bound to the SET b.version parameter.
func setVersion(t *testing.T, params map[string]interface{}) interface{} {
	t.Helper()
	for k, v := range params {
		if strings.HasPrefix(k, "setb_version") {
			return v
		}
	}
	t.Fatalf("no version parameter in %v", params)
	return nil
}

func TestNeo4jStoreImport(t *testing.T) {
	runner := &fakeRunner{}
	bg := sampleGraph("b1")
	require.NoError(t, NewNeo4jStore(runner).ImportBuildingGraph(context.Background(), bg))

	// version read, clear, two nodes, one edge, building version
	require.Len(t, runner.queries, 6)
	assert.Contains(t, runner.queries[0], buildingLabel)
	assert.Contains(t, runner.queries[1], "DETACH DELETE")
	assert.Contains(t, runner.queries[4], connectsType)
	assert.Contains(t, runner.queries[5], buildingLabel)
	assert.Equal(t, int64(1), setVersion(t, runner.params[5]))
	assert.Equal(t, int64(1), bg.Version)
}

func TestNeo4jStoreImportScopesEdgesToBuilding(t *testing.T) {
	runner := &fakeRunner{}
	require.NoError(t, NewNeo4jStore(runner).ImportBuildingGraph(context.Background(), sampleGraph("b1")))

	edgeQuery, edgeParams := runner.queries[4], runner.params[4]
	assert.Equal(t, 2, strings.Count(edgeQuery, "building_id:"), edgeQuery)
	scoped := 0
	for k, v := range edgeParams {
		if strings.HasPrefix(k, "pbuildingid") {
			assert.Equal(t, "b1", v)
			scoped++
		}
	}
	assert.Equal(t, 2, scoped)
}

func TestNeo4jStoreReimportBumpsVersion(t *testing.T) {
	runner := &fakeRunner{building: versionRecord(7)}
	ns := NewNeo4jStore(runner)

	require.NoError(t, ns.ImportBuildingGraph(context.Background(), sampleGraph("b1")))
	assert.Equal(t, int64(8), setVersion(t, runner.params[len(runner.params)-1]))

	// An explicit snapshot version ahead of the stored one wins.
	ahead := sampleGraph("b1")
	ahead.Version = 20
	require.NoError(t, ns.ImportBuildingGraph(context.Background(), ahead))
	assert.Equal(t, int64(20), setVersion(t, runner.params[len(runner.params)-1]))
}
