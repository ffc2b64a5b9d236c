// Package jobs provides the background job queue: envelope shape, the
// repository persisting envelopes in the queue store, the dispatcher routing
// envelopes to registered handlers, and the polling worker driving it.
package jobs

import (
	"encoding/json"
	"time"
)

// JobType identifies a job handler. The set is closed: enqueueing validates
// against Known, and an envelope carrying an unknown type fails dispatch
// like any other handler failure until its attempts are exhausted.
type JobType string

const (
	// TypeValidateImageLink checks a listing's image URL for reachability.
	TypeValidateImageLink JobType = "sale:validate-image-link"
	// TypeOrphanCleanup deletes child rows whose parent sale no longer exists.
	TypeOrphanCleanup JobType = "cleanup:orphaned-data"
	// TypeDailyRollup aggregates one UTC day of analytics events.
	TypeDailyRollup JobType = "analytics:daily-rollup"
	// TypeStartingSoon sends the favorites starting-soon digest.
	TypeStartingSoon JobType = "notify:starting-soon"
	// TypeWeeklyAnalytics sends the weekly seller analytics digest.
	TypeWeeklyAnalytics JobType = "notify:weekly-analytics"
)

// KnownTypes returns all registered job types
func KnownTypes() []JobType {
	return []JobType{
		TypeValidateImageLink,
		TypeOrphanCleanup,
		TypeDailyRollup,
		TypeStartingSoon,
		TypeWeeklyAnalytics,
	}
}

// Known reports whether t is one of the closed job type set
func (t JobType) Known() bool {
	for _, k := range KnownTypes() {
		if t == k {
			return true
		}
	}
	return false
}

// Envelope is the persisted unit of work. The id is stable across retries:
// a retry re-persists the same envelope with attempts incremented, it never
// mints a new id. The envelope is removed once processing terminates in
// success or attempts reach the cap.
type Envelope struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
}
