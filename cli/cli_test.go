package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
)

const snapshotJSON = `{
  "building_id": "building123",
  "nodes": [
    {"node_id": "n1", "floor_number": 1, "x": 0, "y": 0, "node_type": "room", "name": "1楼大厅"},
    {"node_id": "n2", "floor_number": 1, "x": 10, "y": 0, "node_type": "junction"},
    {"node_id": "n3", "floor_number": 1, "x": 5, "y": 5, "node_type": "junction"},
    {"node_id": "n4", "floor_number": 1, "x": 20, "y": 0, "node_type": "room", "name": "1楼办公室"}
  ],
  "edges": [
    {"node1_id": "n1", "node2_id": "n2", "distance": 10},
    {"node1_id": "n2", "node2_id": "n4", "distance": 10},
    {"node1_id": "n1", "node2_id": "n3", "distance": 8},
    {"node1_id": "n3", "node2_id": "n2", "distance": 8}
  ]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "building123.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRouteCommand(t *testing.T) {
	graph := writeSnapshot(t)

	out, err := execute(t, "route", "--graph", graph, "--json", "1楼大厅", "1楼办公室")
	require.NoError(t, err)

	var got routeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"n1", "n2", "n4"}, got.Path)
	assert.InDelta(t, 20, got.Cost, 1e-9)
	assert.NotEmpty(t, got.Instructions)
}

func TestRouteCommandAvoidsCongestion(t *testing.T) {
	graph := writeSnapshot(t)

	// The congested corridor costs 10*(1+2*0.9) = 28; the detour costs 16.
	out, err := execute(t, "route", "--graph", graph, "--json", "--congestion", "n1_n2=0.9", "n1", "n2")
	require.NoError(t, err)

	var got routeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"n1", "n3", "n2"}, got.Path)
	assert.InDelta(t, 16, got.Cost, 1e-9)
}

func TestRouteCommandErrors(t *testing.T) {
	graph := writeSnapshot(t)

	_, err := execute(t, "route", "--graph", graph, "n1", "nowhere")
	assert.Error(t, err)

	_, err = execute(t, "route", "--graph", graph, "--congestion", "n1_n2=2", "n1", "n2")
	assert.Error(t, err)

	_, err = execute(t, "route", "n1", "n2")
	assert.Error(t, err)
}

func TestRouteCommandText(t *testing.T) {
	graph := writeSnapshot(t)
	out, err := execute(t, "route", "--graph", graph, "--dijkstra", "n1", "n4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "n1 -> n2 -> n4\n"), out)
	assert.Contains(t, out, "cost 20.00")
}

func TestConvertCommand(t *testing.T) {
	graph := writeSnapshot(t)
	gobPath := filepath.Join(t.TempDir(), "building123.gob")

	out, err := execute(t, "convert", graph, gobPath)
	require.NoError(t, err)
	assert.Contains(t, out, "4 nodes, 4 edges")

	bg, err := navgraph.LoadSnapshotFile(gobPath)
	require.NoError(t, err)
	assert.Equal(t, "building123", bg.BuildingID)
	assert.Len(t, bg.Nodes, 4)
}

func TestSimulateCommand(t *testing.T) {
	out, err := execute(t, "simulate", "--location", "path_a_b,path_b_c", "--walkers", "20", "--cadence", "40")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "path_a_b\tmoderate\t"), lines[0])
	assert.Contains(t, lines[1], "users=20")
}

func TestSimulateCommandRoutesAroundCrowd(t *testing.T) {
	graph := writeSnapshot(t)

	out, err := execute(t, "simulate", "--location", "path_n1_n2", "--walkers", "20", "--cadence", "40",
		"--graph", graph, "--from", "n1", "--to", "n2")
	require.NoError(t, err)
	assert.Contains(t, out, "route n1 -> n3 -> n2 (cost 16.00)")

	_, err = execute(t, "simulate", "--graph", graph, "--from", "n1")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "indoornav test\n", out)
}
