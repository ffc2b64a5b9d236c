package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/pkg/logger"
)

// Worker is the queue drain driver: a polling loop that dequeues a batch of
// envelopes and processes them sequentially through the dispatcher. The core
// does not require it; any short-lived trigger can dequeue and dispatch the
// same way.
type Worker struct {
	repo       *Repository
	dispatcher *Dispatcher
	log        *slog.Logger

	pollInterval time.Duration
	batchSize    int

	stopCh    chan struct{}
	stoppedCh chan struct{}
	running   bool
	mu        sync.Mutex
}

// NewWorker creates a queue drain worker
func NewWorker(repo *Repository, dispatcher *Dispatcher, cfg *config.Config, log *slog.Logger) *Worker {
	return &Worker{
		repo:         repo,
		dispatcher:   dispatcher,
		log:          log.With(logger.Scope("jobs.worker")),
		pollInterval: cfg.Jobs.DrainInterval,
		batchSize:    cfg.Jobs.DrainBatchSize,
	}
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.stoppedCh = make(chan struct{})
	w.mu.Unlock()

	w.log.Info("job worker starting",
		slog.Duration("poll_interval", w.pollInterval),
		slog.Int("batch_size", w.batchSize))

	go w.run()

	return nil
}

// Stop gracefully stops the worker, waiting for the current batch
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	select {
	case <-w.stoppedCh:
		w.log.Info("job worker stopped gracefully")
	case <-ctx.Done():
		w.log.Warn("job worker stop timeout, forcing shutdown")
	}

	return nil
}

func (w *Worker) run() {
	defer close(w.stoppedCh)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.DrainOnce(context.Background())
		}
	}
}

// DrainOnce performs a single dequeue-and-process pass and returns the
// number of envelopes processed. Envelopes are processed sequentially; a
// stop request takes effect between passes, never mid-batch. Store
// unavailability yields an empty pass.
func (w *Worker) DrainOnce(ctx context.Context) int {
	envelopes, err := w.repo.Dequeue(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("dequeue failed, skipping pass", logger.Error(err))
		return 0
	}

	for _, env := range envelopes {
		w.dispatcher.Process(ctx, env)
	}

	return len(envelopes)
}

// IsRunning returns whether the worker loop is active
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
