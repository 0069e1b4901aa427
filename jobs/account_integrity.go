package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gymtrack/gymtrack/internal/account"
)

// AccountIntegrityJob sweeps the persisted user set out of band: it
// re-applies the admin invariant and removes a session pointer that no
// longer matches any account. Normal operation maintains both already;
// the sweep repairs sets written by older or misbehaving contexts.
type AccountIntegrityJob struct {
	store       account.Store
	adminEmail  string
	adminDigest string
	logger      *slog.Logger
}

// NewAccountIntegrityJob constructs the sweep job.
func NewAccountIntegrityJob(store account.Store, adminEmail, adminDigest string, logger *slog.Logger) *AccountIntegrityJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountIntegrityJob{
		store:       store,
		adminEmail:  adminEmail,
		adminDigest: adminDigest,
		logger:      logger,
	}
}

// Handle runs one sweep.
func (j *AccountIntegrityJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload IntegrityPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			j.logger.Warn("integrity payload unreadable", slog.Any("error", err))
		}
	}

	users := j.store.GetUsers(ctx)
	corrected, modified := account.EnsureAdmin(users, j.adminEmail, j.adminDigest)
	if modified {
		j.logger.Info("integrity sweep corrected user set",
			slog.String("reason", payload.Reason))
		if err := j.store.SaveUsers(ctx, corrected); err != nil {
			return err
		}
	}

	if email, ok := j.store.GetCurrentSessionEmail(ctx); ok {
		known := false
		for _, u := range corrected {
			if u.Email == email {
				known = true
				break
			}
		}
		if !known {
			j.logger.Info("integrity sweep removed stale session pointer",
				slog.String("email", email))
			if err := j.store.RemoveCurrentSessionEmail(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
