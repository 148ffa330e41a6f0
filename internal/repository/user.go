package repository

import (
	"context"
	"encoding/json"
	"errors"

	"hearth/internal/cache"
	"hearth/internal/models"

	"github.com/redis/go-redis/v9"
)

// UserRepository reads the profiles written by the identity system.
type UserRepository interface {
	// GetProfile returns nil without error when no profile is stored.
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	// GetProfiles returns the stored profiles keyed by id; missing ids are absent.
	GetProfiles(ctx context.Context, userIDs []string) (map[string]*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

type userRepository struct {
	store
}

// NewUserRepository creates a new user repository
func NewUserRepository(rdb *redis.Client, opts StoreOptions) UserRepository {
	return &userRepository{store: newStore(rdb, "users", opts)}
}

func (r *userRepository) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var raw string
	err := r.run(ctx, "get_profile", func(ctx context.Context) error {
		var err error
		raw, err = r.rdb.Get(ctx, cache.UserKey(userID)).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil || raw == "" {
		return nil, err
	}
	return r.decode(ctx, userID, raw), nil
}

func (r *userRepository) GetProfiles(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	profiles := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = cache.UserKey(id)
	}

	var values []any
	err := r.run(ctx, "get_profiles", func(ctx context.Context) error {
		var err error
		values, err = r.rdb.MGet(ctx, keys...).Result()
		return err
	})
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if u := r.decode(ctx, userIDs[i], raw); u != nil {
			profiles[userIDs[i]] = u
		}
	}
	return profiles, nil
}

// decode treats an unreadable profile as missing.
func (r *userRepository) decode(ctx context.Context, userID, raw string) *models.User {
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		r.log.LogError(ctx, err, "decode_profile")
		return nil
	}
	if u.ID == "" {
		u.ID = userID
	}
	return &u
}

func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	if err := models.ValidateUserID(user.ID); err != nil {
		return err
	}
	data, err := json.Marshal(user)
	if err != nil {
		return models.NewInternalError(err)
	}
	return r.run(ctx, "save_profile", func(ctx context.Context) error {
		return r.rdb.Set(ctx, cache.UserKey(user.ID), data, 0).Err()
	})
}
