package cleanup

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/yardline-app/yardline/domain/analytics"
	"github.com/yardline-app/yardline/domain/sales"
	"github.com/yardline-app/yardline/internal/jobs"
)

// Module provides the orphan cleanup job
var Module = fx.Module("cleanup",
	fx.Provide(newScanner),
	fx.Invoke(registerJobs),
)

func newScanner(saleRepo *sales.Repository, eventRepo *analytics.Repository, log *slog.Logger) *Scanner {
	return NewScanner(saleRepo, map[string]ChildStore{
		TableItems:           &itemStore{repo: saleRepo},
		TableAnalyticsEvents: &eventStore{repo: eventRepo},
	}, log)
}

func registerJobs(registry *jobs.Registry, scanner *Scanner) {
	registry.Register(jobs.TypeOrphanCleanup, scanner.Handle)
}
