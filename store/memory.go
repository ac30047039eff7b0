package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
)

// MemoryStore implements every store interface in process memory.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu         sync.RWMutex
	graphs     map[string]*models.BuildingGraph
	congestion map[string][]models.CongestionData // by building
	history    map[string][]models.NavigationHistory
	favorites  map[string][]models.FavoriteDestination
	settings   map[string]models.UserSettings
}

type MemoryOption func(*MemoryStore)

// WithCongestionTTL drops congestion records older than ttl. Zero keeps them.
func WithCongestionTTL(ttl time.Duration) MemoryOption {
	return func(m *MemoryStore) { m.ttl = ttl }
}

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		now:        time.Now,
		graphs:     make(map[string]*models.BuildingGraph),
		congestion: make(map[string][]models.CongestionData),
		history:    make(map[string][]models.NavigationHistory),
		favorites:  make(map[string][]models.FavoriteDestination),
		settings:   make(map[string]models.UserSettings),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PutBuildingGraph stores bg and bumps its version past the previous one.
func (m *MemoryStore) PutBuildingGraph(bg *models.BuildingGraph) error {
	if bg.BuildingID == "" {
		return fmt.Errorf("%w: building_id", models.ErrMissingField)
	}
	if err := bg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *bg
	if prev, ok := m.graphs[bg.BuildingID]; ok && cp.Version <= prev.Version {
		cp.Version = prev.Version + 1
	}
	m.graphs[bg.BuildingID] = &cp
	return nil
}

func (m *MemoryStore) BuildingGraph(ctx context.Context, buildingID string) (*models.BuildingGraph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bg, ok := m.graphs[buildingID]
	if !ok {
		return nil, fmt.Errorf("%w: building %s", ErrNotFound, buildingID)
	}
	return bg, nil
}

func (m *MemoryStore) SaveCongestion(ctx context.Context, records []models.CongestionData) error {
	for _, c := range records {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range records {
		m.congestion[c.BuildingID] = append(m.congestion[c.BuildingID], c)
	}
	m.pruneCongestion()
	return nil
}

func (m *MemoryStore) LatestCongestion(ctx context.Context, buildingID string) ([]models.CongestionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneCongestion()
	return latestPerEdge(m.congestion[buildingID]), nil
}

// pruneCongestion must be called with mu held.
func (m *MemoryStore) pruneCongestion() {
	if m.ttl <= 0 {
		return
	}
	cutoff := m.now().Add(-m.ttl)
	for b, records := range m.congestion {
		kept := records[:0]
		for _, c := range records {
			if c.Timestamp.After(cutoff) {
				kept = append(kept, c)
			}
		}
		m.congestion[b] = kept
	}
}

func (m *MemoryStore) AddHistory(ctx context.Context, h models.NavigationHistory) error {
	if err := h.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[h.UserID] = append(m.history[h.UserID], h)
	return nil
}

func (m *MemoryStore) ListHistory(ctx context.Context, userID string, limit int) ([]models.NavigationHistory, error) {
	m.mu.RLock()
	out := append([]models.NavigationHistory(nil), m.history[userID]...)
	m.mu.RUnlock()
	return sortHistory(out, limit), nil
}

func (m *MemoryStore) AddFavorite(ctx context.Context, f models.FavoriteDestination) error {
	if err := f.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favorites[f.UserID] = append(m.favorites[f.UserID], f)
	return nil
}

func (m *MemoryStore) ListFavorites(ctx context.Context, userID string) ([]models.FavoriteDestination, error) {
	m.mu.RLock()
	out := append([]models.FavoriteDestination(nil), m.favorites[userID]...)
	m.mu.RUnlock()
	return sortFavorites(out), nil
}

func (m *MemoryStore) UpdateSettings(ctx context.Context, userID string, s models.UserSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[userID] = s
	return nil
}

func (m *MemoryStore) Settings(ctx context.Context, userID string) (models.UserSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[userID]
	if !ok {
		return models.UserSettings{}, fmt.Errorf("%w: settings for %s", ErrNotFound, userID)
	}
	return s, nil
}
