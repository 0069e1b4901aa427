package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gymtrack/gymtrack/internal/account"
	"github.com/gymtrack/gymtrack/internal/analytics"
)

// AnalyticsWarmupJob prebuilds the per-user analytics summaries so the
// first dashboard hit after a cache bump is served warm.
type AnalyticsWarmupJob struct {
	store   account.Store
	service *analytics.Service
	logger  *slog.Logger
}

// NewAnalyticsWarmupJob constructs the warmup job.
func NewAnalyticsWarmupJob(store account.Store, service *analytics.Service, logger *slog.Logger) *AnalyticsWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsWarmupJob{store: store, service: service, logger: logger}
}

// Handle warms the summary cache for every known user.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, task *asynq.Task) error {
	users := j.store.GetUsers(ctx)
	warmed := 0
	for _, u := range users {
		if _, err := j.service.GetSummary(ctx, u.ID); err != nil {
			j.logger.Warn("warm analytics summary",
				slog.String("user_id", u.ID), slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.logger.Info("analytics warmup complete", slog.Int("warmed", warmed))
	return nil
}
