package queuestore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and when Redis is not
// configured. It honors the same expiry semantics as the Redis store.
type MemoryStore struct {
	mu    sync.Mutex
	queue []string
	items map[string]memoryItem

	// now is swappable in tests
	now func() time.Time
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory queue store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (s *MemoryStore) Push(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, id)
	return nil
}

func (s *MemoryStore) Pop(ctx context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || len(s.queue) == 0 {
		return nil, nil
	}
	if limit > len(s.queue) {
		limit = len(s.queue)
	}

	ids := make([]string, limit)
	copy(ids, s.queue[:limit])
	s.queue = s.queue[limit:]
	return ids, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !item.expiresAt.IsZero() && !s.now().Before(item.expiresAt) {
		delete(s.items, key)
		return nil, ErrNotFound
	}

	value := make([]byte, len(item.value))
	copy(value, item.value)
	return value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := memoryItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = item
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

func (s *MemoryStore) Len(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.queue)), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
