package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
)

// BadgerStore keeps congestion history and user data in BadgerDB. Congestion
// entries expire on their own after the configured TTL.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
	now func() time.Time
}

// OpenBadger opens a store under dir, or an in-memory one when dir is empty.
func OpenBadger(dir string, congestionTTL time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return &BadgerStore{db: db, ttl: congestionTTL, now: time.Now}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func congestionPrefix(buildingID string) []byte {
	return []byte("congestion/" + buildingID + "/")
}

func (s *BadgerStore) SaveCongestion(ctx context.Context, records []models.CongestionData) error {
	for _, c := range records {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	now := s.now()
	return s.db.Update(func(txn *badger.Txn) error {
		for _, c := range records {
			val, err := json.Marshal(c)
			if err != nil {
				return err
			}
			key := append(congestionPrefix(c.BuildingID), fmt.Sprintf("%020d/%s", c.Timestamp.UnixNano(), c.CongestionID)...)
			e := badger.NewEntry(key, val)
			if s.ttl > 0 {
				remaining := c.Timestamp.Add(s.ttl).Sub(now)
				if remaining <= 0 {
					continue
				}
				e = e.WithTTL(remaining)
			}
			if err := txn.SetEntry(e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) LatestCongestion(ctx context.Context, buildingID string) ([]models.CongestionData, error) {
	var all []models.CongestionData
	err := s.scan(congestionPrefix(buildingID), func(val []byte) error {
		var c models.CongestionData
		if err := json.Unmarshal(val, &c); err != nil {
			return err
		}
		all = append(all, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return latestPerEdge(all), nil
}

func (s *BadgerStore) AddHistory(ctx context.Context, h models.NavigationHistory) error {
	if err := h.Validate(); err != nil {
		return err
	}
	return s.put(fmt.Sprintf("history/%s/%020d/%s", h.UserID, h.StartTime.UnixNano(), h.HistoryID), h)
}

func (s *BadgerStore) ListHistory(ctx context.Context, userID string, limit int) ([]models.NavigationHistory, error) {
	var out []models.NavigationHistory
	err := s.scan([]byte("history/"+userID+"/"), func(val []byte) error {
		var h models.NavigationHistory
		if err := json.Unmarshal(val, &h); err != nil {
			return err
		}
		out = append(out, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortHistory(out, limit), nil
}

func (s *BadgerStore) AddFavorite(ctx context.Context, f models.FavoriteDestination) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return s.put("favorite/"+f.UserID+"/"+f.FavoriteID, f)
}

func (s *BadgerStore) ListFavorites(ctx context.Context, userID string) ([]models.FavoriteDestination, error) {
	var out []models.FavoriteDestination
	err := s.scan([]byte("favorite/"+userID+"/"), func(val []byte) error {
		var f models.FavoriteDestination
		if err := json.Unmarshal(val, &f); err != nil {
			return err
		}
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortFavorites(out), nil
}

func (s *BadgerStore) UpdateSettings(ctx context.Context, userID string, settings models.UserSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.put("settings/"+userID, settings)
}

func (s *BadgerStore) Settings(ctx context.Context, userID string) (models.UserSettings, error) {
	var settings models.UserSettings
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("settings/" + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.UserSettings{}, fmt.Errorf("%w: settings for %s", ErrNotFound, userID)
	}
	return settings, err
}

func (s *BadgerStore) put(key string, v interface{}) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
}

func (s *BadgerStore) scan(prefix []byte, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
