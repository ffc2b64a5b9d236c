package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yardline-app/yardline/internal/queuestore"
	"github.com/yardline-app/yardline/internal/telemetry"
)

// captureRecorder records dispatcher error-sink emissions
type captureRecorder struct {
	mu       sync.Mutex
	captured []capturedError
}

type capturedError struct {
	err  error
	tags map[string]string
}

func (c *captureRecorder) CaptureError(ctx context.Context, err error, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captured = append(c.captured, capturedError{err: err, tags: tags})
}

type dispatcherFixture struct {
	repo     *Repository
	registry *Registry
	capture  *captureRecorder
	d        *Dispatcher
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()

	repo := NewRepository(queuestore.NewMemoryStore(), testConfig(), discardLog())
	registry := NewRegistry()
	capture := &captureRecorder{}
	metrics := telemetry.New(discardLog())

	return &dispatcherFixture{
		repo:     repo,
		registry: registry,
		capture:  capture,
		d:        NewDispatcher(repo, registry, metrics, capture, discardLog()),
	}
}

func TestDispatcher_SuccessDeletesEnvelope(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	var gotPayload json.RawMessage
	f.registry.Register(TypeOrphanCleanup, func(ctx context.Context, payload json.RawMessage) error {
		gotPayload = payload
		return nil
	})

	// The full enqueue/dequeue/process/delete cycle.
	_, err := f.repo.Enqueue(ctx, TypeOrphanCleanup, map[string]any{"batchSize": 10, "itemType": "items"}, nil)
	require.NoError(t, err)

	envelopes, err := f.repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)
	assert.Equal(t, 0, envelopes[0].Attempts)

	result := f.d.Process(ctx, envelopes[0])
	assert.True(t, result.Success)
	assert.NoError(t, result.Err)
	assert.JSONEq(t, `{"batchSize":10,"itemType":"items"}`, string(gotPayload))

	// Envelope is gone: next dequeue returns nothing.
	envelopes, err = f.repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, envelopes)

	assert.Empty(t, f.capture.captured)
}

func TestDispatcher_FailureRequeuesSameID(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	f.registry.Register(TypeDailyRollup, func(ctx context.Context, payload json.RawMessage) error {
		return errors.New("events query timed out")
	})

	id, err := f.repo.Enqueue(ctx, TypeDailyRollup, nil, nil)
	require.NoError(t, err)

	envelopes, err := f.repo.Dequeue(ctx, 1)
	require.NoError(t, err)

	result := f.d.Process(ctx, envelopes[0])
	assert.False(t, result.Success)
	assert.True(t, result.WillRetry)

	// Retry re-pushed the same id with attempts bumped by exactly one.
	envelopes, err = f.repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)
	assert.Equal(t, id, envelopes[0].ID)
	assert.Equal(t, 1, envelopes[0].Attempts)

	require.Len(t, f.capture.captured, 1)
	assert.Equal(t, "true", f.capture.captured[0].tags["will_retry"])
	assert.Equal(t, id, f.capture.captured[0].tags["job_id"])
	assert.Equal(t, string(TypeDailyRollup), f.capture.captured[0].tags["job_type"])
}

func TestDispatcher_AttemptsExhausted(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	calls := 0
	f.registry.Register(TypeValidateImageLink, func(ctx context.Context, payload json.RawMessage) error {
		calls++
		return errors.New("boom")
	})

	_, err := f.repo.Enqueue(ctx, TypeValidateImageLink, map[string]any{"imageUrl": ""}, nil)
	require.NoError(t, err)

	// Default cap is 3 attempts: process until the queue is empty.
	for i := 0; i < 3; i++ {
		envelopes, err := f.repo.Dequeue(ctx, 1)
		require.NoError(t, err)
		require.Len(t, envelopes, 1, "attempt %d should still be queued", i)
		f.d.Process(ctx, envelopes[0])
	}

	envelopes, err := f.repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, envelopes, "exhausted job must never be dequeued again")
	assert.Equal(t, 3, calls)

	// Final capture reports the drop.
	last := f.capture.captured[len(f.capture.captured)-1]
	assert.Equal(t, "false", last.tags["will_retry"])
}

func TestDispatcher_UnknownTypeIsFailureNotPanic(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	env := &Envelope{
		ID:          "orphaned-envelope",
		Type:        JobType("listing:defunct"),
		Attempts:    0,
		MaxAttempts: 2,
	}

	result := f.d.Process(ctx, env)
	assert.False(t, result.Success)
	assert.True(t, result.WillRetry)

	// It flows the same retry path until dropped.
	envelopes, err := f.repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)

	result = f.d.Process(ctx, envelopes[0])
	assert.False(t, result.Success)
	assert.False(t, result.WillRetry)
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	f.registry.Register(TypeStartingSoon, func(ctx context.Context, payload json.RawMessage) error {
		panic("nil sale dereference")
	})

	_, err := f.repo.Enqueue(ctx, TypeStartingSoon, nil, nil)
	require.NoError(t, err)

	envelopes, err := f.repo.Dequeue(ctx, 1)
	require.NoError(t, err)

	var result Result
	assert.NotPanics(t, func() {
		result = f.d.Process(ctx, envelopes[0])
	})
	assert.False(t, result.Success)
	assert.ErrorContains(t, result.Err, "handler panic")
	assert.True(t, result.WillRetry)
}

func TestRegistry_GuardsWiringBugs(t *testing.T) {
	r := NewRegistry()
	noop := func(ctx context.Context, payload json.RawMessage) error { return nil }

	r.Register(TypeOrphanCleanup, noop)

	h, ok := r.Lookup(TypeOrphanCleanup)
	assert.True(t, ok)
	assert.NotNil(t, h)

	_, ok = r.Lookup(TypeDailyRollup)
	assert.False(t, ok)

	assert.Panics(t, func() { r.Register(TypeOrphanCleanup, noop) })
	assert.Panics(t, func() { r.Register(JobType("not:a:thing"), noop) })
	assert.Panics(t, func() { r.Register(TypeDailyRollup, nil) })
}

func TestWorker_DrainOnce(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	processed := 0
	f.registry.Register(TypeOrphanCleanup, func(ctx context.Context, payload json.RawMessage) error {
		processed++
		return nil
	})

	for i := 0; i < 3; i++ {
		_, err := f.repo.Enqueue(ctx, TypeOrphanCleanup, nil, nil)
		require.NoError(t, err)
	}

	w := NewWorker(f.repo, f.d, testConfig(), discardLog())

	n := w.DrainOnce(ctx)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, processed)

	// Nothing left on the second pass.
	assert.Equal(t, 0, w.DrainOnce(ctx))
}

func TestWorker_DrainOnce_StoreUnavailable(t *testing.T) {
	f := newDispatcherFixture(t)
	store := &flakyStore{Store: queuestore.NewMemoryStore(), failPop: true}
	repo := NewRepository(store, testConfig(), discardLog())

	w := NewWorker(repo, f.d, testConfig(), discardLog())
	assert.Equal(t, 0, w.DrainOnce(context.Background()))
}
