package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/internal/queuestore"
	"github.com/yardline-app/yardline/pkg/logger"
)

// Repository persists envelopes in the queue store and maintains the queue
// of pending ids.
type Repository struct {
	store       queuestore.Store
	log         *slog.Logger
	maxAttempts int
	envelopeTTL time.Duration
}

// NewRepository creates a job repository
func NewRepository(store queuestore.Store, cfg *config.Config, log *slog.Logger) *Repository {
	return &Repository{
		store:       store,
		log:         log.With(logger.Scope("jobs.repo")),
		maxAttempts: cfg.Jobs.DefaultMaxAttempts,
		envelopeTTL: cfg.Jobs.EnvelopeTTL,
	}
}

func jobKey(id string) string {
	return "job:" + id
}

// EnqueueOptions contains optional enqueue parameters
type EnqueueOptions struct {
	// MaxAttempts overrides the configured default attempt cap
	MaxAttempts int
}

// Enqueue persists a new envelope and pushes its id to the queue tail.
// The payload is serialized to JSON. A store error is returned to the caller
// rather than panicking; enqueue sites treat a failed enqueue as a lost
// best-effort job, never as a request failure.
func (r *Repository) Enqueue(ctx context.Context, jobType JobType, payload any, opts *EnqueueOptions) (string, error) {
	if !jobType.Known() {
		return "", fmt.Errorf("enqueue: unknown job type %q", jobType)
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("enqueue: marshal payload: %w", err)
		}
		raw = data
	}

	maxAttempts := r.maxAttempts
	if opts != nil && opts.MaxAttempts > 0 {
		maxAttempts = opts.MaxAttempts
	}

	env := &Envelope{
		ID:          uuid.NewString(),
		Type:        jobType,
		Payload:     raw,
		EnqueuedAt:  time.Now().UTC(),
		Attempts:    0,
		MaxAttempts: maxAttempts,
	}

	if err := r.persist(ctx, env); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	if err := r.store.Push(ctx, env.ID); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", jobType, err)
	}

	r.log.Debug("enqueued job",
		slog.String("job_id", env.ID),
		slog.String("job_type", string(jobType)))

	return env.ID, nil
}

// Dequeue pops up to limit ids from the queue head and resolves their
// envelopes. Ids whose body has expired or does not parse are skipped.
// A store error returns no envelopes so drivers can distinguish an
// unavailable store from an empty queue.
func (r *Repository) Dequeue(ctx context.Context, limit int) ([]*Envelope, error) {
	ids, err := r.store.Pop(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("dequeue: %w", err)
	}

	envelopes := make([]*Envelope, 0, len(ids))
	for _, id := range ids {
		data, err := r.store.Get(ctx, jobKey(id))
		if errors.Is(err, queuestore.ErrNotFound) {
			r.log.Warn("queued id without envelope body, skipping",
				slog.String("job_id", id))
			continue
		}
		if err != nil {
			r.log.Warn("failed to fetch envelope, skipping",
				slog.String("job_id", id),
				logger.Error(err))
			continue
		}

		env := &Envelope{}
		if err := json.Unmarshal(data, env); err != nil {
			r.log.Warn("corrupt envelope body, dropping",
				slog.String("job_id", id),
				logger.Error(err))
			_ = r.store.Delete(ctx, jobKey(id))
			continue
		}

		envelopes = append(envelopes, env)
	}

	return envelopes, nil
}

// Delete removes an envelope body. The id is already off the queue.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, jobKey(id))
}

// Retry applies the retry policy to a failed envelope: attempts is
// incremented in place, and either the envelope is re-persisted with its id
// pushed back to the queue tail (requeued=true) or, when attempts reach the
// cap, the envelope is deleted (requeued=false, permanently dropped).
//
// There is no timed backoff: a retried job is simply deprioritized behind
// whatever was enqueued after it.
func (r *Repository) Retry(ctx context.Context, env *Envelope) (requeued bool, err error) {
	env.Attempts++

	if env.Attempts >= env.MaxAttempts {
		if err := r.Delete(ctx, env.ID); err != nil {
			return false, fmt.Errorf("drop exhausted job %s: %w", env.ID, err)
		}
		return false, nil
	}

	if err := r.persist(ctx, env); err != nil {
		return false, fmt.Errorf("requeue job %s: %w", env.ID, err)
	}
	if err := r.store.Push(ctx, env.ID); err != nil {
		return false, fmt.Errorf("requeue job %s: %w", env.ID, err)
	}
	return true, nil
}

func (r *Repository) persist(ctx context.Context, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return r.store.Set(ctx, jobKey(env.ID), data, r.envelopeTTL)
}

// Status describes the queue for health reporting
type Status struct {
	Length         int64 `json:"length"`
	StoreReachable bool  `json:"store_reachable"`
}

// QueueStatus reports queue length and store reachability
func (r *Repository) QueueStatus(ctx context.Context) Status {
	if err := r.store.Ping(ctx); err != nil {
		r.log.Warn("queue store unreachable", logger.Error(err))
		return Status{StoreReachable: false}
	}

	length, err := r.store.Len(ctx)
	if err != nil {
		r.log.Warn("queue length query failed", logger.Error(err))
		return Status{StoreReachable: false}
	}

	return Status{Length: length, StoreReachable: true}
}
