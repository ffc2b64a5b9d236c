package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yardline-app/yardline/internal/telemetry"
	"github.com/yardline-app/yardline/pkg/logger"
)

// Result is the outcome of dispatching one envelope
type Result struct {
	Success   bool
	Err       error
	WillRetry bool
}

// Dispatcher is the single entry point routing an envelope to its handler
// and applying the success/retry/drop policy. It performs exactly one store
// mutation per call (delete on success, retry otherwise) and never talks to
// domain collaborators directly; only handlers do.
type Dispatcher struct {
	repo     *Repository
	registry *Registry
	metrics  *telemetry.Telemetry
	capture  telemetry.Capturer
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(repo *Repository, registry *Registry, metrics *telemetry.Telemetry, capture telemetry.Capturer, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		registry: registry,
		metrics:  metrics,
		capture:  capture,
		log:      log.With(logger.Scope("jobs.dispatcher")),
	}
}

// Process routes an envelope to its handler and finalizes the envelope.
// Handler failures and panics flow through the retry policy; an unknown job
// type is an ordinary failure that consumes attempts until dropped. Errors
// never propagate to the driver.
func (d *Dispatcher) Process(ctx context.Context, env *Envelope) Result {
	start := time.Now()

	err := d.invoke(ctx, env)
	if err == nil {
		if derr := d.repo.Delete(ctx, env.ID); derr != nil {
			// The body will still lapse with its expiry.
			d.log.Warn("failed to delete completed envelope",
				slog.String("job_id", env.ID),
				logger.Error(derr))
		}

		d.metrics.RecordJob(string(env.Type), telemetry.OutcomeSuccess, time.Since(start))
		d.log.Debug("job completed",
			slog.String("job_id", env.ID),
			slog.String("job_type", string(env.Type)),
			slog.Duration("duration", time.Since(start)))

		return Result{Success: true}
	}

	requeued, rerr := d.repo.Retry(ctx, env)
	if rerr != nil {
		d.log.Error("retry bookkeeping failed",
			slog.String("job_id", env.ID),
			logger.Error(rerr))
		requeued = false
	}

	outcome := telemetry.OutcomeRetry
	if !requeued {
		outcome = telemetry.OutcomeDropped
	}
	d.metrics.RecordJob(string(env.Type), outcome, time.Since(start))

	d.capture.CaptureError(ctx, err, map[string]string{
		"job_type":   string(env.Type),
		"job_id":     env.ID,
		"will_retry": telemetry.RetryTag(requeued),
	})

	d.log.Warn("job failed",
		slog.String("job_id", env.ID),
		slog.String("job_type", string(env.Type)),
		slog.Int("attempts", env.Attempts),
		slog.Int("max_attempts", env.MaxAttempts),
		slog.Bool("will_retry", requeued),
		logger.Error(err))

	return Result{Success: false, Err: err, WillRetry: requeued}
}

// invoke runs the handler, converting a missing handler or a panic into an
// ordinary error so every failure takes the same retry path.
func (d *Dispatcher) invoke(ctx context.Context, env *Envelope) (err error) {
	handler, ok := d.registry.Lookup(env.Type)
	if !ok {
		return fmt.Errorf("no handler registered for job type %q", env.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return handler(ctx, env.Payload)
}
