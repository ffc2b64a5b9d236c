package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/yardline-app/yardline/pkg/logger"
)

// Repository handles database operations for sales and their items
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a sales repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("sales.repo")),
	}
}

// ListByIDs returns the sales with the given ids, in no particular order
func (r *Repository) ListByIDs(ctx context.Context, ids []string) ([]*Sale, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var sales []*Sale
	err := r.db.NewSelect().
		Model(&sales).
		Where("s.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales by ids: %w", err)
	}
	return sales, nil
}

// ListCreatedBetween returns sales created in [from, to)
func (r *Repository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*Sale, error) {
	var sales []*Sale
	err := r.db.NewSelect().
		Model(&sales).
		Where("s.created_at >= ?", from).
		Where("s.created_at < ?", to).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales created between: %w", err)
	}
	return sales, nil
}

// Exists reports whether a sale row with the given id exists
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Sale)(nil)).
		Where("s.id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("sale exists %s: %w", id, err)
	}
	return exists, nil
}

// ItemRef is an item row reduced to its parent reference
type ItemRef struct {
	ID     string `bun:"id"`
	SaleID string `bun:"sale_id"`
}

// ListItemRefs returns up to limit item rows as parent references
func (r *Repository) ListItemRefs(ctx context.Context, limit int) ([]ItemRef, error) {
	var refs []ItemRef
	err := r.db.NewSelect().
		Model((*Item)(nil)).
		Column("id", "sale_id").
		Order("created_at ASC").
		Limit(limit).
		Scan(ctx, &refs)
	if err != nil {
		return nil, fmt.Errorf("list item refs: %w", err)
	}
	return refs, nil
}

// DeleteItems removes the item rows with the given ids in one call
func (r *Repository) DeleteItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.db.NewDelete().
		Model((*Item)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return nil
}
