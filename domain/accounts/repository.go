package accounts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/yardline-app/yardline/pkg/logger"
)

// Repository handles database operations for notification preferences
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates an accounts repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("accounts.repo")),
	}
}

// NotificationPrefs returns the preference flags for the given account ids.
// Accounts without a profile row are absent from the result; callers treat
// absence as opted in. Digest jobs fail open when this query errors.
func (r *Repository) NotificationPrefs(ctx context.Context, accountIDs []string) (map[string]Prefs, error) {
	if len(accountIDs) == 0 {
		return map[string]Prefs{}, nil
	}

	var profiles []Profile
	err := r.db.NewSelect().
		Model(&profiles).
		Where("p.id IN (?)", bun.In(accountIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("notification prefs: %w", err)
	}

	prefs := make(map[string]Prefs, len(profiles))
	for _, p := range profiles {
		prefs[p.ID] = Prefs{
			StartingSoonDigest: p.StartingSoonDigest,
			WeeklyAnalytics:    p.WeeklyAnalytics,
		}
	}
	return prefs, nil
}
