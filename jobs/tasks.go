// Package jobs contains the Asynq task definitions and worker plumbing for
// background report maintenance.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReconWarmup pre-computes reconciliation reports into the cache.
	TaskReconWarmup = "recon:warmup"
)

// ReconWarmupPayload describes which periods the warmup run should cover.
type ReconWarmupPayload struct {
	// Periods lists YYYYMM tokens to warm. Empty means the default period.
	Periods []string `json:"periods"`
	// IncludeYear also warms the year view for each listed period's year.
	IncludeYear bool `json:"include_year"`
}

// NewReconWarmupTask constructs an Asynq task for report warmup.
func NewReconWarmupTask(payload ReconWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconWarmup, data), nil
}
