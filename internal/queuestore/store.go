// Package queuestore provides the minimal key/list store backing the job
// queue. The queue itself is a FIFO list of envelope ids under one well-known
// key; envelope bodies live under namespaced keys with a fixed expiry so
// abandoned entries self-clean.
package queuestore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key does not exist or has expired.
var ErrNotFound = errors.New("queuestore: key not found")

// Store is the queue store abstraction. All operations on the Redis
// implementation are remote calls that can fail transiently; callers must
// treat an error as "store unavailable", which is distinct from an empty
// queue (empty result, nil error).
type Store interface {
	// Push appends an id to the queue tail.
	Push(ctx context.Context, id string) error
	// Pop removes and returns up to limit ids from the queue head. Fewer are
	// returned if the queue is shorter, none if it is empty.
	Pop(ctx context.Context, limit int) ([]string, error)
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value under key with the given expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the value stored under key. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error
	// Len returns the current queue length.
	Len(ctx context.Context) (int64, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
