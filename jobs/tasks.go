package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAccountIntegrity re-applies the admin invariant to the
	// persisted user set and clears stale session pointers.
	TaskAccountIntegrity = "account:integrity"
	// TaskAnalyticsWarmup prebuilds analytics summaries for all users.
	TaskAnalyticsWarmup = "analytics:warmup"
)

// IntegrityPayload parameterizes an account integrity sweep.
type IntegrityPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewAccountIntegrityTask constructs an integrity sweep task.
func NewAccountIntegrityTask(payload IntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccountIntegrity, data), nil
}

// NewAnalyticsWarmupTask constructs a warmup task.
func NewAnalyticsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskAnalyticsWarmup, nil)
}
