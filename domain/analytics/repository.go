package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/yardline-app/yardline/pkg/logger"
)

// Repository handles database operations for analytics events
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates an analytics repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("analytics.repo")),
	}
}

// ListWindow returns non-test events created in [from, to), optionally
// scoped to one sale
func (r *Repository) ListWindow(ctx context.Context, from, to time.Time, saleID string) ([]*Event, error) {
	var events []*Event
	q := r.db.NewSelect().
		Model(&events).
		Where("ae.created_at >= ?", from).
		Where("ae.created_at < ?", to).
		Where("ae.is_test = false")

	if saleID != "" {
		q = q.Where("ae.sale_id = ?", saleID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list events in window: %w", err)
	}
	return events, nil
}

// EventRef is an event row reduced to its parent reference
type EventRef struct {
	ID     string `bun:"id"`
	SaleID string `bun:"sale_id"`
}

// ListEventRefs returns up to limit event rows as parent references
func (r *Repository) ListEventRefs(ctx context.Context, limit int) ([]EventRef, error) {
	var refs []EventRef
	err := r.db.NewSelect().
		Model((*Event)(nil)).
		Column("id", "sale_id").
		Order("created_at ASC").
		Limit(limit).
		Scan(ctx, &refs)
	if err != nil {
		return nil, fmt.Errorf("list event refs: %w", err)
	}
	return refs, nil
}

// DeleteEvents removes the event rows with the given ids in one call
func (r *Repository) DeleteEvents(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.db.NewDelete().
		Model((*Event)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	return nil
}
