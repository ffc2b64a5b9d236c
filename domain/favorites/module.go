package favorites

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/yardline-app/yardline/domain/accounts"
	"github.com/yardline-app/yardline/domain/email"
	"github.com/yardline-app/yardline/domain/sales"
	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/internal/jobs"
)

// Module provides the favorites repository and the starting-soon digest job
var Module = fx.Module("favorites",
	fx.Provide(
		NewRepository,
		newDigest,
	),
	fx.Invoke(registerJobs),
)

func newDigest(
	cfg *config.Config,
	favRepo *Repository,
	saleRepo *sales.Repository,
	directory accounts.Directory,
	acctRepo *accounts.Repository,
	sender email.Sender,
	templates *email.TemplateService,
	log *slog.Logger,
) *StartingSoonDigest {
	return NewStartingSoonDigest(cfg, favRepo, saleRepo, directory, acctRepo, sender, templates, log)
}

func registerJobs(registry *jobs.Registry, digest *StartingSoonDigest) {
	registry.Register(jobs.TypeStartingSoon, digest.Handle)
}
