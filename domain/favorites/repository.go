package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/yardline-app/yardline/pkg/logger"
)

// Repository handles database operations for favorites
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a favorites repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("favorites.repo")),
	}
}

// ListUnnotified returns every favorite that has not yet been covered by a
// starting-soon digest
func (r *Repository) ListUnnotified(ctx context.Context) ([]Favorite, error) {
	var favs []Favorite
	err := r.db.NewSelect().
		Model(&favs).
		Where("f.notified_at IS NULL").
		Order("f.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unnotified favorites: %w", err)
	}
	return favs, nil
}

// MarkNotified stamps the given favorite rows with the send time. Rows that
// picked up a stamp since they were listed are left alone.
func (r *Repository) MarkNotified(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.db.NewUpdate().
		Model((*Favorite)(nil)).
		Set("notified_at = ?", at).
		Where("id IN (?)", bun.In(ids)).
		Where("notified_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark favorites notified: %w", err)
	}
	return nil
}
