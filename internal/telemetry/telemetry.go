// Package telemetry provides the job processing metrics and the error
// capture sink the dispatcher reports through. Failures of background work
// are never user-facing; this is where they become visible.
package telemetry

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yardline-app/yardline/pkg/logger"
)

// Capturer receives errors from the dispatcher, tagged with the job's
// type, id and retry intent.
type Capturer interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
}

// Telemetry implements Capturer and tracks job outcome counters.
type Telemetry struct {
	log      *slog.Logger
	registry *prometheus.Registry

	jobsProcessed *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
}

// New creates a Telemetry with its own metrics registry
func New(log *slog.Logger) *Telemetry {
	registry := prometheus.NewRegistry()

	jobsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yardline_jobs_processed_total",
		Help: "Background jobs processed, by type and outcome.",
	}, []string{"type", "outcome"})

	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yardline_job_duration_seconds",
		Help:    "Background job handler duration, by type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	registry.MustRegister(jobsProcessed, jobDuration)

	return &Telemetry{
		log:           log.With(logger.Scope("telemetry")),
		registry:      registry,
		jobsProcessed: jobsProcessed,
		jobDuration:   jobDuration,
	}
}

// Registry returns the metrics registry for exposure
func (t *Telemetry) Registry() *prometheus.Registry {
	return t.registry
}

// Job outcomes
const (
	OutcomeSuccess = "success"
	OutcomeRetry   = "retry"
	OutcomeDropped = "dropped"
)

// RecordJob records the outcome and duration of one dispatch
func (t *Telemetry) RecordJob(jobType, outcome string, duration time.Duration) {
	t.jobsProcessed.WithLabelValues(jobType, outcome).Inc()
	t.jobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

// CaptureError reports a job failure to the error sink. Tags carry the job
// type, id and whether the job will be retried.
func (t *Telemetry) CaptureError(ctx context.Context, err error, tags map[string]string) {
	attrs := make([]any, 0, len(tags)+1)
	attrs = append(attrs, logger.Error(err))
	for k, v := range tags {
		attrs = append(attrs, slog.String(k, v))
	}
	t.log.Error("job error captured", attrs...)
}

// RetryTag formats the willRetry tag value
func RetryTag(willRetry bool) string {
	return strconv.FormatBool(willRetry)
}
