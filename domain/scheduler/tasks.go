package scheduler

import (
	"context"
	"log/slog"

	"github.com/yardline-app/yardline/domain/cleanup"
	"github.com/yardline-app/yardline/internal/jobs"
	"github.com/yardline-app/yardline/pkg/logger"
)

// EnqueueTask enqueues one job type with a fixed payload every time it fires.
// Handlers resolve time-dependent inputs themselves, so an envelope that sits
// in the queue for a while still aggregates the right window.
type EnqueueTask struct {
	repo    *jobs.Repository
	jobType jobs.JobType
	payload any
	log     *slog.Logger
}

// NewEnqueueTask creates a task that enqueues the given job type on each run
func NewEnqueueTask(repo *jobs.Repository, jobType jobs.JobType, payload any, log *slog.Logger) *EnqueueTask {
	return &EnqueueTask{
		repo:    repo,
		jobType: jobType,
		payload: payload,
		log:     log.With(logger.Scope("scheduler.enqueue")),
	}
}

// Run enqueues one envelope
func (t *EnqueueTask) Run(ctx context.Context) error {
	id, err := t.repo.Enqueue(ctx, t.jobType, t.payload, nil)
	if err != nil {
		return err
	}

	t.log.Debug("enqueued scheduled job",
		slog.String("type", string(t.jobType)),
		slog.String("job_id", id))
	return nil
}

// orphanScans returns one enqueue payload per child table the cleanup job
// covers
func orphanScans() []cleanup.OrphanScanParams {
	return []cleanup.OrphanScanParams{
		{ItemType: cleanup.TableItems},
		{ItemType: cleanup.TableAnalyticsEvents},
	}
}
