package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/yardline-app/yardline/pkg/logger"
)

// RollupPayload is the input of the daily rollup job
type RollupPayload struct {
	// Date is the UTC calendar day to aggregate as "2006-01-02".
	// Empty means yesterday.
	Date string `json:"date,omitempty"`
	// SaleID optionally scopes the rollup to one sale.
	SaleID string `json:"saleId,omitempty"`
}

// RollupKey groups event counts
type RollupKey struct {
	SaleID    string
	EventType EventType
}

// EventSource lists events for aggregation
type EventSource interface {
	ListWindow(ctx context.Context, from, to time.Time, saleID string) ([]*Event, error)
}

// RollupSink receives the finished aggregate. The shipped sink only logs it;
// persisting rollups to a dedicated store plugs in here.
type RollupSink interface {
	WriteRollup(ctx context.Context, day time.Time, counts map[RollupKey]int) error
}

// DailyRollup aggregates one UTC day of analytics events grouped by
// (sale, event type)
type DailyRollup struct {
	events EventSource
	sink   RollupSink
	log    *slog.Logger

	now func() time.Time
}

// NewDailyRollup creates the daily rollup handler
func NewDailyRollup(repo *Repository, sink RollupSink, log *slog.Logger) *DailyRollup {
	return &DailyRollup{
		events: repo,
		sink:   sink,
		log:    log.With(logger.Scope("analytics.rollup")),
		now:    time.Now,
	}
}

// Handle processes one daily rollup job
func (h *DailyRollup) Handle(ctx context.Context, payload json.RawMessage) error {
	var p RollupPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("daily rollup: decode payload: %w", err)
		}
	}

	day, err := h.resolveDay(p.Date)
	if err != nil {
		return err
	}
	from := day
	to := day.AddDate(0, 0, 1)

	events, err := h.events.ListWindow(ctx, from, to, p.SaleID)
	if err != nil {
		return fmt.Errorf("daily rollup: %w", err)
	}

	counts := make(map[RollupKey]int)
	for _, e := range events {
		counts[RollupKey{SaleID: e.SaleID, EventType: e.EventType}]++
	}

	if err := h.sink.WriteRollup(ctx, day, counts); err != nil {
		return fmt.Errorf("daily rollup: sink: %w", err)
	}

	h.log.Info("daily rollup complete",
		slog.String("day", day.Format("2006-01-02")),
		slog.Int("events", len(events)),
		slog.Int("groups", len(counts)))

	return nil
}

// resolveDay parses the payload date or defaults to yesterday, UTC
func (h *DailyRollup) resolveDay(date string) (time.Time, error) {
	if date == "" {
		now := h.now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return today.AddDate(0, 0, -1), nil
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("daily rollup: invalid date %q: %w", date, err)
	}
	return day, nil
}

// LogSink logs the finished aggregate, one line per group
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates the logging rollup sink
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log.With(logger.Scope("analytics.sink"))}
}

func (s *LogSink) WriteRollup(ctx context.Context, day time.Time, counts map[RollupKey]int) error {
	for key, n := range counts {
		s.log.Info("rollup group",
			slog.String("day", day.Format("2006-01-02")),
			slog.String("sale_id", key.SaleID),
			slog.String("event_type", string(key.EventType)),
			slog.Int("count", n))
	}
	return nil
}
