package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/internal/queuestore"
)

func testConfig() *config.Config {
	return &config.Config{
		Jobs: config.JobsConfig{
			DefaultMaxAttempts: 3,
			EnvelopeTTL:        7 * 24 * time.Hour,
			DrainBatchSize:     10,
			DrainInterval:      5 * time.Second,
		},
	}
}

func discardLog() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// flakyStore injects failures into an otherwise working store
type flakyStore struct {
	queuestore.Store
	failPush bool
	failPop  bool
	failPing bool
}

var errStoreDown = errors.New("connection refused")

func (s *flakyStore) Push(ctx context.Context, id string) error {
	if s.failPush {
		return errStoreDown
	}
	return s.Store.Push(ctx, id)
}

func (s *flakyStore) Pop(ctx context.Context, limit int) ([]string, error) {
	if s.failPop {
		return nil, errStoreDown
	}
	return s.Store.Pop(ctx, limit)
}

func (s *flakyStore) Ping(ctx context.Context) error {
	if s.failPing {
		return errStoreDown
	}
	return s.Store.Ping(ctx)
}

func TestRepository_EnqueueDequeueRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(queuestore.NewMemoryStore(), testConfig(), discardLog())

	payload := map[string]any{"batchSize": 10, "itemType": "items"}
	id, err := repo.Enqueue(ctx, TypeOrphanCleanup, payload, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	envelopes, err := repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)

	env := envelopes[0]
	assert.Equal(t, id, env.ID)
	assert.Equal(t, TypeOrphanCleanup, env.Type)
	assert.JSONEq(t, `{"batchSize":10,"itemType":"items"}`, string(env.Payload))
	assert.Equal(t, 0, env.Attempts)
	assert.Equal(t, 3, env.MaxAttempts)
	assert.False(t, env.EnqueuedAt.IsZero())
}

func TestRepository_Enqueue_UnknownType(t *testing.T) {
	repo := NewRepository(queuestore.NewMemoryStore(), testConfig(), discardLog())

	_, err := repo.Enqueue(context.Background(), JobType("bogus:type"), nil, nil)
	assert.Error(t, err)
}

func TestRepository_Enqueue_MaxAttemptsOverride(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(queuestore.NewMemoryStore(), testConfig(), discardLog())

	_, err := repo.Enqueue(ctx, TypeStartingSoon, nil, &EnqueueOptions{MaxAttempts: 1})
	require.NoError(t, err)

	envelopes, err := repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)
	assert.Equal(t, 1, envelopes[0].MaxAttempts)
}

func TestRepository_Enqueue_StoreUnavailable(t *testing.T) {
	store := &flakyStore{Store: queuestore.NewMemoryStore(), failPush: true}
	repo := NewRepository(store, testConfig(), discardLog())

	_, err := repo.Enqueue(context.Background(), TypeDailyRollup, nil, nil)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestRepository_Dequeue_StoreUnavailable(t *testing.T) {
	store := &flakyStore{Store: queuestore.NewMemoryStore(), failPop: true}
	repo := NewRepository(store, testConfig(), discardLog())

	envelopes, err := repo.Dequeue(context.Background(), 5)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, envelopes)
}

func TestRepository_Dequeue_SkipsExpiredBody(t *testing.T) {
	ctx := context.Background()
	store := queuestore.NewMemoryStore()
	repo := NewRepository(store, testConfig(), discardLog())

	good, err := repo.Enqueue(ctx, TypeStartingSoon, nil, nil)
	require.NoError(t, err)

	// An id whose body has expired must be skipped, not surfaced.
	require.NoError(t, store.Push(ctx, "expired-id"))

	envelopes, err := repo.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)
	assert.Equal(t, good, envelopes[0].ID)
}

func TestRepository_Retry_IncrementsInPlace(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(queuestore.NewMemoryStore(), testConfig(), discardLog())

	id, err := repo.Enqueue(ctx, TypeWeeklyAnalytics, nil, nil)
	require.NoError(t, err)

	envelopes, err := repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	env := envelopes[0]

	requeued, err := repo.Retry(ctx, env)
	require.NoError(t, err)
	assert.True(t, requeued)
	assert.Equal(t, 1, env.Attempts)

	// Same id comes back with the incremented attempt count.
	envelopes, err = repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)
	assert.Equal(t, id, envelopes[0].ID)
	assert.Equal(t, 1, envelopes[0].Attempts)
}

func TestRepository_Retry_DropsAtCap(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(queuestore.NewMemoryStore(), testConfig(), discardLog())

	_, err := repo.Enqueue(ctx, TypeWeeklyAnalytics, nil, &EnqueueOptions{MaxAttempts: 2})
	require.NoError(t, err)

	envelopes, err := repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	env := envelopes[0]

	requeued, err := repo.Retry(ctx, env)
	require.NoError(t, err)
	assert.True(t, requeued)

	envelopes, err = repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	env = envelopes[0]

	// attempts reaches the cap: dropped, and never dequeued again
	requeued, err = repo.Retry(ctx, env)
	require.NoError(t, err)
	assert.False(t, requeued)

	envelopes, err = repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, envelopes)
}

func TestRepository_QueueStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("reachable with length", func(t *testing.T) {
		repo := NewRepository(queuestore.NewMemoryStore(), testConfig(), discardLog())

		_, err := repo.Enqueue(ctx, TypeStartingSoon, nil, nil)
		require.NoError(t, err)
		_, err = repo.Enqueue(ctx, TypeWeeklyAnalytics, nil, nil)
		require.NoError(t, err)

		status := repo.QueueStatus(ctx)
		assert.True(t, status.StoreReachable)
		assert.Equal(t, int64(2), status.Length)
	})

	t.Run("unreachable", func(t *testing.T) {
		store := &flakyStore{Store: queuestore.NewMemoryStore(), failPing: true}
		repo := NewRepository(store, testConfig(), discardLog())

		status := repo.QueueStatus(ctx)
		assert.False(t, status.StoreReachable)
	})
}
