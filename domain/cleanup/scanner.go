// Package cleanup removes child rows whose parent sale no longer exists.
// Deletes in the app cascade through the database for the common paths; this
// scan catches rows left behind by partial imports and manual surgery.
package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yardline-app/yardline/pkg/logger"
)

// Table names accepted in the scan payload
const (
	TableItems           = "items"
	TableAnalyticsEvents = "analytics_events"
)

const defaultBatchSize = 50

// OrphanScanParams is the payload of an orphan cleanup job
type OrphanScanParams struct {
	// BatchSize caps how many rows one scan examines. Zero means the default.
	BatchSize int `json:"batchSize"`
	// ItemType names the child table to scan
	ItemType string `json:"itemType"`
}

// Ref is a child row reduced to its id and parent sale id
type Ref struct {
	ID     string
	SaleID string
}

// ChildStore lists candidate child rows and deletes confirmed orphans
type ChildStore interface {
	ListRefs(ctx context.Context, limit int) ([]Ref, error)
	Delete(ctx context.Context, ids []string) error
}

// ParentStore answers whether a parent sale row still exists
type ParentStore interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Scanner runs one bounded orphan scan per job. Each candidate's parent is
// verified individually right before the batch delete, so a sale created
// mid-scan is never torn down under its children.
type Scanner struct {
	parents  ParentStore
	children map[string]ChildStore
	log      *slog.Logger
}

// NewScanner creates an orphan scanner over the given child tables
func NewScanner(parents ParentStore, children map[string]ChildStore, log *slog.Logger) *Scanner {
	return &Scanner{
		parents:  parents,
		children: children,
		log:      log.With(logger.Scope("cleanup.orphans")),
	}
}

// Handle runs one scan pass for the table named in the payload
func (s *Scanner) Handle(ctx context.Context, payload json.RawMessage) error {
	var params OrphanScanParams
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &params); err != nil {
			return fmt.Errorf("orphan scan: decode payload: %w", err)
		}
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultBatchSize
	}

	store, ok := s.children[params.ItemType]
	if !ok {
		return fmt.Errorf("orphan scan: unknown item type %q", params.ItemType)
	}

	refs, err := store.ListRefs(ctx, params.BatchSize)
	if err != nil {
		return fmt.Errorf("orphan scan %s: %w", params.ItemType, err)
	}
	if len(refs) == 0 {
		return nil
	}

	// Parent ids repeat heavily across children of the same sale, so cache
	// the existence answer per scan
	known := make(map[string]bool)
	var orphans []string
	for _, ref := range refs {
		exists, ok := known[ref.SaleID]
		if !ok {
			exists, err = s.parents.Exists(ctx, ref.SaleID)
			if err != nil {
				return fmt.Errorf("orphan scan %s: verify sale %s: %w", params.ItemType, ref.SaleID, err)
			}
			known[ref.SaleID] = exists
		}
		if !exists {
			orphans = append(orphans, ref.ID)
		}
	}

	if len(orphans) == 0 {
		s.log.Debug("orphan scan found nothing to remove",
			slog.String("item_type", params.ItemType),
			slog.Int("examined", len(refs)))
		return nil
	}

	if err := store.Delete(ctx, orphans); err != nil {
		return fmt.Errorf("orphan scan %s: delete: %w", params.ItemType, err)
	}

	s.log.Info("removed orphaned rows",
		slog.String("item_type", params.ItemType),
		slog.Int("examined", len(refs)),
		slog.Int("removed", len(orphans)))
	return nil
}
