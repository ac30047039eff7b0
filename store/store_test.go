package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleGraph(id string) *models.BuildingGraph {
	return &models.BuildingGraph{
		BuildingID: id,
		Nodes: []models.NavigationNode{
			{NodeID: "n1", BuildingID: id, FloorNumber: 1, NodeType: models.Room, Name: "1楼大厅"},
			{NodeID: "n2", BuildingID: id, FloorNumber: 1, X: 10, NodeType: models.Junction},
		},
		Edges: []models.NavigationEdge{{Node1ID: "n1", Node2ID: "n2", Distance: 10, EdgeType: models.Hallway}},
	}
}

type fullStore interface {
	CongestionStore
	UserStore
}

func runStoreSuite(t *testing.T, newStore func(t *testing.T, now func() time.Time) fullStore) {
	ctx := context.Background()
	now := t0.Add(time.Minute)
	clock := func() time.Time { return now }

	t.Run("latest congestion per edge", func(t *testing.T) {
		s := newStore(t, clock)
		require.NoError(t, s.SaveCongestion(ctx, []models.CongestionData{
			{CongestionID: "c1", BuildingID: "b1", Node1ID: "n1", Node2ID: "n2", CongestionRate: 0.2, Timestamp: t0},
			{CongestionID: "c2", BuildingID: "b1", Node1ID: "n2", Node2ID: "n1", CongestionRate: 0.6, Timestamp: t0.Add(10 * time.Second)},
			{CongestionID: "c3", BuildingID: "b1", Node1ID: "n2", Node2ID: "n3", CongestionRate: 0.1, Timestamp: t0},
			{CongestionID: "c4", BuildingID: "b2", Node1ID: "n1", Node2ID: "n2", CongestionRate: 0.9, Timestamp: t0},
		}))

		latest, err := s.LatestCongestion(ctx, "b1")
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, "c2", latest[0].CongestionID)
		assert.Equal(t, 0.6, latest[0].CongestionRate)
		assert.Equal(t, "c3", latest[1].CongestionID)

		empty, err := s.LatestCongestion(ctx, "nowhere")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("expired congestion is dropped", func(t *testing.T) {
		s := newStore(t, clock)
		require.NoError(t, s.SaveCongestion(ctx, []models.CongestionData{
			{CongestionID: "old", BuildingID: "b1", Node1ID: "n1", Node2ID: "n2", CongestionRate: 0.9, Timestamp: now.Add(-time.Hour)},
		}))
		latest, err := s.LatestCongestion(ctx, "b1")
		require.NoError(t, err)
		assert.Empty(t, latest)
	})

	t.Run("invalid congestion is rejected", func(t *testing.T) {
		s := newStore(t, clock)
		err := s.SaveCongestion(ctx, []models.CongestionData{
			{CongestionID: "bad", BuildingID: "b1", Node1ID: "n1", Node2ID: "n2", CongestionRate: 2, Timestamp: now},
		})
		assert.ErrorIs(t, err, models.ErrInvalidField)
	})

	t.Run("history newest first with limit", func(t *testing.T) {
		s := newStore(t, clock)
		for i := 0; i < 5; i++ {
			require.NoError(t, s.AddHistory(ctx, models.NavigationHistory{
				HistoryID:   string(rune('a' + i)),
				UserID:      "u1",
				StartNodeID: "n1",
				EndNodeID:   "n2",
				StartTime:   t0.Add(time.Duration(i) * time.Minute),
				Path:        []string{"n1", "n2"},
			}))
		}
		h, err := s.ListHistory(ctx, "u1", 3)
		require.NoError(t, err)
		require.Len(t, h, 3)
		assert.Equal(t, "e", h[0].HistoryID)
		assert.Equal(t, "c", h[2].HistoryID)
		assert.Equal(t, []string{"n1", "n2"}, h[0].Path)

		none, err := s.ListHistory(ctx, "u2", 10)
		require.NoError(t, err)
		assert.Empty(t, none)

		assert.ErrorIs(t, s.AddHistory(ctx, models.NavigationHistory{UserID: "u1"}), models.ErrMissingField)
	})

	t.Run("favorites in creation order", func(t *testing.T) {
		s := newStore(t, clock)
		require.NoError(t, s.AddFavorite(ctx, models.FavoriteDestination{FavoriteID: "f2", UserID: "u1", NodeID: "n2", Name: "实验室", CreatedAt: t0.Add(time.Second)}))
		require.NoError(t, s.AddFavorite(ctx, models.FavoriteDestination{FavoriteID: "f1", UserID: "u1", NodeID: "n1", Name: "我的教室", CreatedAt: t0}))

		favs, err := s.ListFavorites(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, favs, 2)
		assert.Equal(t, "我的教室", favs[0].Name)
		assert.Equal(t, "f2", favs[1].FavoriteID)
	})

	t.Run("settings", func(t *testing.T) {
		s := newStore(t, clock)
		_, err := s.Settings(ctx, "u1")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.UpdateSettings(ctx, "u1", models.UserSettings{VoiceVolume: 40, WakeWord: "你好"}))
		got, err := s.Settings(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, models.UserSettings{VoiceVolume: 40, WakeWord: "你好"}, got)

		assert.ErrorIs(t, s.UpdateSettings(ctx, "u1", models.UserSettings{VoiceVolume: -1}), models.ErrInvalidField)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T, now func() time.Time) fullStore {
		return NewMemoryStore(WithCongestionTTL(5*time.Minute), WithMemoryClock(now))
	})
}

func TestBadgerStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T, now func() time.Time) fullStore {
		s, err := OpenBadger("", 5*time.Minute)
		require.NoError(t, err)
		s.now = now
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestMemoryStoreGraphVersions(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.BuildingGraph(ctx, "b1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.PutBuildingGraph(sampleGraph("b1")))
	first, err := m.BuildingGraph(ctx, "b1")
	require.NoError(t, err)

	require.NoError(t, m.PutBuildingGraph(sampleGraph("b1")))
	second, err := m.BuildingGraph(ctx, "b1")
	require.NoError(t, err)
	assert.Greater(t, second.Version, first.Version)

	bad := sampleGraph("b1")
	bad.Edges[0].Distance = -3
	assert.ErrorIs(t, m.PutBuildingGraph(bad), models.ErrInvalidField)
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, navgraph.WriteSnapshotGob(filepath.Join(dir, "b1.gob"), sampleGraph("b1")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b2.json"),
		[]byte(`{"nodes":[{"node_id":"x","floor_number":0}],"edges":[]}`), 0o644))

	s := NewSnapshotStore(dir)

	bg, err := s.BuildingGraph(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, bg.Nodes, 2)
	assert.NotZero(t, bg.Version)

	bg, err = s.BuildingGraph(ctx, "b2")
	require.NoError(t, err)
	assert.Equal(t, "b2", bg.BuildingID)

	_, err = s.BuildingGraph(ctx, "b3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotStoreStaysInsideDirectory(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	dir := filepath.Join(parent, "graphs")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, navgraph.WriteSnapshotGob(filepath.Join(parent, "outside.gob"), sampleGraph("../outside")))

	s := NewSnapshotStore(dir)
	for _, id := range []string{"../outside", "..", "a/b", `a\b`, "/etc/passwd", ""} {
		_, err := s.BuildingGraph(ctx, id)
		assert.ErrorIs(t, err, models.ErrInvalidField, id)
	}
}
