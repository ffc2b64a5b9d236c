package analytics

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/yardline-app/yardline/domain/accounts"
	"github.com/yardline-app/yardline/domain/email"
	"github.com/yardline-app/yardline/domain/sales"
	"github.com/yardline-app/yardline/internal/jobs"
)

// Module provides the analytics repository, the daily rollup job and the
// weekly seller digest job
var Module = fx.Module("analytics",
	fx.Provide(
		NewRepository,
		NewLogSink,
		newRollup,
		newWeeklyDigest,
	),
	fx.Invoke(registerJobs),
)

func newRollup(repo *Repository, sink *LogSink, log *slog.Logger) *DailyRollup {
	return NewDailyRollup(repo, sink, log)
}

func newWeeklyDigest(
	repo *Repository,
	saleRepo *sales.Repository,
	directory accounts.Directory,
	acctRepo *accounts.Repository,
	sender email.Sender,
	templates *email.TemplateService,
	log *slog.Logger,
) *WeeklyDigest {
	return NewWeeklyDigest(repo, saleRepo, directory, acctRepo, sender, templates, log)
}

func registerJobs(registry *jobs.Registry, rollup *DailyRollup, weekly *WeeklyDigest) {
	registry.Register(jobs.TypeDailyRollup, rollup.Handle)
	registry.Register(jobs.TypeWeeklyAnalytics, weekly.Handle)
}
