package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// HandlerFunc processes one job payload. A nil return completes the job; an
// error sends it through the retry policy.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Registry maps job types to their handlers. Domain modules register their
// handlers during startup; registering an unknown or duplicate type is a
// wiring bug and panics immediately rather than surfacing later as failed
// jobs.
type Registry struct {
	mu       sync.RWMutex
	handlers map[JobType]HandlerFunc
}

// NewRegistry creates an empty handler registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[JobType]HandlerFunc),
	}
}

// Register binds a handler to a job type
func (r *Registry) Register(jobType JobType, handler HandlerFunc) {
	if !jobType.Known() {
		panic(fmt.Sprintf("jobs: register unknown job type %q", jobType))
	}
	if handler == nil {
		panic(fmt.Sprintf("jobs: nil handler for job type %q", jobType))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[jobType]; exists {
		panic(fmt.Sprintf("jobs: duplicate handler for job type %q", jobType))
	}
	r.handlers[jobType] = handler
}

// Lookup returns the handler for a job type
func (r *Registry) Lookup(jobType JobType) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[jobType]
	return h, ok
}

// Types returns the job types with a registered handler
func (r *Registry) Types() []JobType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]JobType, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
