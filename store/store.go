// Package store is the persistence boundary: building graphs, congestion
// history and per-user data. The navigation core only sees these
// interfaces.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/models"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

type GraphStore interface {
	// BuildingGraph returns the nodes and edges of a building. The Version
	// field changes whenever the stored topology does.
	BuildingGraph(ctx context.Context, buildingID string) (*models.BuildingGraph, error)
}

type CongestionStore interface {
	SaveCongestion(ctx context.Context, records []models.CongestionData) error
	// LatestCongestion returns the newest live record of every edge of a
	// building.
	LatestCongestion(ctx context.Context, buildingID string) ([]models.CongestionData, error)
}

type UserStore interface {
	AddHistory(ctx context.Context, h models.NavigationHistory) error
	// ListHistory returns at most limit entries, newest first.
	ListHistory(ctx context.Context, userID string, limit int) ([]models.NavigationHistory, error)
	AddFavorite(ctx context.Context, f models.FavoriteDestination) error
	ListFavorites(ctx context.Context, userID string) ([]models.FavoriteDestination, error)
	UpdateSettings(ctx context.Context, userID string, s models.UserSettings) error
	// Settings returns ErrNotFound for a user who never saved any.
	Settings(ctx context.Context, userID string) (models.UserSettings, error)
}

// latestPerEdge keeps the newest record of each unordered node pair, sorted
// by edge for stable output.
func latestPerEdge(records []models.CongestionData) []models.CongestionData {
	latest := make(map[congestion.EdgeKey]models.CongestionData)
	for _, c := range records {
		k := congestion.NewEdgeKey(c.Node1ID, c.Node2ID)
		if cur, ok := latest[k]; !ok || c.Timestamp.After(cur.Timestamp) {
			latest[k] = c
		}
	}
	out := make([]models.CongestionData, 0, len(latest))
	for _, c := range latest {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a := congestion.NewEdgeKey(out[i].Node1ID, out[i].Node2ID)
		b := congestion.NewEdgeKey(out[j].Node1ID, out[j].Node2ID)
		if a.A != b.A {
			return a.A < b.A
		}
		return a.B < b.B
	})
	return out
}

func sortHistory(h []models.NavigationHistory, limit int) []models.NavigationHistory {
	sort.SliceStable(h, func(i, j int) bool {
		return h[i].StartTime.After(h[j].StartTime)
	})
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}
	return h
}

func sortFavorites(f []models.FavoriteDestination) []models.FavoriteDestination {
	sort.SliceStable(f, func(i, j int) bool {
		return f[i].CreatedAt.Before(f[j].CreatedAt)
	})
	return f
}
