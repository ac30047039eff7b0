package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedthameursassi/IndoorNavServer/models"
	"github.com/mohamedthameursassi/IndoorNavServer/store"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type UserService struct {
	store store.UserStore
	now   func() time.Time
}

func NewUserService(us store.UserStore) *UserService {
	return &UserService{store: us, now: time.Now}
}

// Settings returns the user's saved settings, or the defaults for a user who
// never saved any.
func (s *UserService) Settings(ctx context.Context, userID string) (models.UserSettings, error) {
	settings, err := s.store.Settings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultUserSettings(), nil
	}
	return settings, err
}

func (s *UserService) UpdateSettings(ctx context.Context, userID string, settings models.UserSettings) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id", models.ErrMissingField)
	}
	return s.store.UpdateSettings(ctx, userID, settings)
}

func (s *UserService) AddFavorite(ctx context.Context, userID string, req models.FavoriteRequest) (models.FavoriteDestination, error) {
	f := models.FavoriteDestination{
		FavoriteID: uuid.NewString(),
		UserID:     userID,
		NodeID:     req.NodeID,
		Name:       req.Name,
		CreatedAt:  s.now(),
	}
	if err := s.store.AddFavorite(ctx, f); err != nil {
		return models.FavoriteDestination{}, err
	}
	return f, nil
}

func (s *UserService) Favorites(ctx context.Context, userID string) ([]models.FavoriteDestination, error) {
	return s.store.ListFavorites(ctx, userID)
}

// History lists recent routes, newest first. A non-positive limit means the
// default and large limits are capped.
func (s *UserService) History(ctx context.Context, userID string, limit int) ([]models.NavigationHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.store.ListHistory(ctx, userID, limit)
}
