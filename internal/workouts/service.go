package workouts

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gymtrack/gymtrack/internal/shared"
)

// VersionBumper invalidates derived caches after a workout mutation.
type VersionBumper interface {
	Bump(ctx context.Context) error
}

// Service handles workout log business logic over the flat store blob.
type Service struct {
	store  Store
	bumper VersionBumper
	logger *slog.Logger
}

// NewService builds a Service instance. bumper may be nil.
func NewService(store Store, bumper VersionBumper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, bumper: bumper, logger: logger}
}

// CreateInput carries the fields for a new workout log.
type CreateInput struct {
	UserID string
	Date   time.Time
	Name   string
	Type   WorkoutType
	Sets   int
	Reps   int
	Notes  string
}

// Create appends a new log to the shared list and persists the full list.
func (s *Service) Create(ctx context.Context, in CreateInput) (WorkoutLog, error) {
	log := WorkoutLog{
		ID:     uuid.NewString(),
		UserID: in.UserID,
		Date:   in.Date,
		Name:   in.Name,
		Type:   in.Type,
		Sets:   in.Sets,
		Reps:   in.Reps,
		Notes:  in.Notes,
	}
	all := append(s.store.GetWorkouts(ctx), log)
	if err := s.store.SaveWorkouts(ctx, all); err != nil {
		return WorkoutLog{}, err
	}
	s.bump(ctx)
	return log, nil
}

// ListByUser returns the user's logs sorted most recent first.
func (s *Service) ListByUser(ctx context.Context, userID string) []WorkoutLog {
	var mine []WorkoutLog
	for _, l := range s.store.GetWorkouts(ctx) {
		if l.UserID == userID {
			mine = append(mine, l)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].Date.After(mine[j].Date) })
	return mine
}

// Recent returns up to n of the user's most recent logs.
func (s *Service) Recent(ctx context.Context, userID string, n int) []WorkoutLog {
	mine := s.ListByUser(ctx, userID)
	if len(mine) > n {
		mine = mine[:n]
	}
	return mine
}

// Update replaces an existing log owned by the same user.
func (s *Service) Update(ctx context.Context, updated WorkoutLog) error {
	all := s.store.GetWorkouts(ctx)
	for i := range all {
		if all[i].ID != updated.ID || all[i].UserID != updated.UserID {
			continue
		}
		all[i] = updated
		if err := s.store.SaveWorkouts(ctx, all); err != nil {
			return err
		}
		s.bump(ctx)
		return nil
	}
	return shared.ErrNotFound
}

// Delete removes a log owned by the given user.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	all := s.store.GetWorkouts(ctx)
	kept := all[:0:0]
	for _, l := range all {
		if l.ID == id && l.UserID == userID {
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == len(all) {
		s.logger.Warn("workout not found for deletion", slog.String("workout_id", id))
		return shared.ErrNotFound
	}
	if err := s.store.SaveWorkouts(ctx, kept); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *Service) bump(ctx context.Context) {
	if s.bumper == nil {
		return
	}
	if err := s.bumper.Bump(ctx); err != nil {
		s.logger.Warn("bump analytics cache version", slog.Any("error", err))
	}
}
