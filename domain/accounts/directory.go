package accounts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/yardline-app/yardline/pkg/logger"
)

// Directory is the bulk account listing the digest jobs resolve emails
// through. There is no server-side id filter; callers filter client-side by
// id membership.
type Directory interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

// DBDirectory implements Directory on the accounts table
type DBDirectory struct {
	db  bun.IDB
	log *slog.Logger
}

// NewDBDirectory creates the database-backed account directory
func NewDBDirectory(db bun.IDB, log *slog.Logger) *DBDirectory {
	return &DBDirectory{
		db:  db,
		log: log.With(logger.Scope("accounts.directory")),
	}
}

func (d *DBDirectory) ListAccounts(ctx context.Context) ([]Account, error) {
	var list []Account
	err := d.db.NewSelect().
		Model(&list).
		Column("id", "email", "display_name", "created_at").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return list, nil
}
