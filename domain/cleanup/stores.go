package cleanup

import (
	"context"

	"github.com/yardline-app/yardline/domain/analytics"
	"github.com/yardline-app/yardline/domain/sales"
)

// itemStore scans app.items through the sales repository
type itemStore struct {
	repo *sales.Repository
}

func (s *itemStore) ListRefs(ctx context.Context, limit int) ([]Ref, error) {
	rows, err := s.repo.ListItemRefs(ctx, limit)
	if err != nil {
		return nil, err
	}
	refs := make([]Ref, len(rows))
	for i, row := range rows {
		refs[i] = Ref{ID: row.ID, SaleID: row.SaleID}
	}
	return refs, nil
}

func (s *itemStore) Delete(ctx context.Context, ids []string) error {
	return s.repo.DeleteItems(ctx, ids)
}

// eventStore scans app.analytics_events through the analytics repository
type eventStore struct {
	repo *analytics.Repository
}

func (s *eventStore) ListRefs(ctx context.Context, limit int) ([]Ref, error) {
	rows, err := s.repo.ListEventRefs(ctx, limit)
	if err != nil {
		return nil, err
	}
	refs := make([]Ref, len(rows))
	for i, row := range rows {
		refs[i] = Ref{ID: row.ID, SaleID: row.SaleID}
	}
	return refs, nil
}

func (s *eventStore) Delete(ctx context.Context, ids []string) error {
	return s.repo.DeleteEvents(ctx, ids)
}
