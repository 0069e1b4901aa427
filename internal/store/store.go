// Package store implements the shared key-value persistence boundary.
//
// The user set, workout list, and session-email pointer are each one JSON
// blob under a well-known key, replaced wholesale on write. Concurrent
// writers from different execution contexts race at the key level and the
// last write wins. Every write to a watched key is announced on a pub/sub
// channel tagged with the writer's origin ID so other contexts can
// reconcile; a handle never delivers its own writes back to itself.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gymtrack/gymtrack/internal/account"
	"github.com/gymtrack/gymtrack/internal/workouts"
)

// Storage key layout.
const (
	UsersKey        = "gymtrack:users"
	WorkoutsKey     = "gymtrack:workouts"
	SessionEmailKey = "gymtrack:currentUserEmail"

	changeChannel = "gymtrack:changes"
)

// Store is a Redis-backed adapter for one execution context.
type Store struct {
	client *redis.Client
	logger *slog.Logger
	origin string
}

// New constructs a Store with a fresh origin identity.
func New(client *redis.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		logger: logger,
		origin: uuid.NewString(),
	}
}

// GetUsers loads the full user set, failing open to an empty set when the
// key is missing or holds corrupt data.
func (s *Store) GetUsers(ctx context.Context) []account.User {
	var users []account.User
	s.getJSON(ctx, UsersKey, &users)
	return users
}

// SaveUsers replaces the full user set and announces the change.
func (s *Store) SaveUsers(ctx context.Context, users []account.User) error {
	return s.setJSON(ctx, UsersKey, users)
}

// GetWorkouts loads the full workout list, failing open to empty.
func (s *Store) GetWorkouts(ctx context.Context) []workouts.WorkoutLog {
	var logs []workouts.WorkoutLog
	s.getJSON(ctx, WorkoutsKey, &logs)
	return logs
}

// SaveWorkouts replaces the full workout list and announces the change.
func (s *Store) SaveWorkouts(ctx context.Context, logs []workouts.WorkoutLog) error {
	return s.setJSON(ctx, WorkoutsKey, logs)
}

// GetCurrentSessionEmail reads the persisted session pointer.
func (s *Store) GetCurrentSessionEmail(ctx context.Context) (string, bool) {
	email, err := s.client.Get(ctx, SessionEmailKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("read session pointer", slog.Any("error", err))
		}
		return "", false
	}
	return email, true
}

// SetCurrentSessionEmail persists the session pointer.
func (s *Store) SetCurrentSessionEmail(ctx context.Context, email string) error {
	return s.client.Set(ctx, SessionEmailKey, email, 0).Err()
}

// RemoveCurrentSessionEmail clears the session pointer.
func (s *Store) RemoveCurrentSessionEmail(ctx context.Context) error {
	err := s.client.Del(ctx, SessionEmailKey).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (s *Store) getJSON(ctx context.Context, key string, dest any) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("store read failed, treating as empty",
				slog.String("key", key), slog.Any("error", err))
		}
		return
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		s.logger.Warn("corrupt store value, treating as empty",
			slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Store) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return err
	}
	s.announce(ctx, key, data)
	return nil
}

// announce publishes a change envelope. Delivery is best effort; a failed
// publish only delays convergence until the next successful write.
func (s *Store) announce(ctx context.Context, key string, value []byte) {
	env := changeEnvelope{Origin: s.origin, Key: key, Value: value}
	payload, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn("encode change envelope", slog.Any("error", err))
		return
	}
	if err := s.client.Publish(ctx, changeChannel, payload).Err(); err != nil {
		s.logger.Warn("publish change", slog.String("key", key), slog.Any("error", err))
	}
}
