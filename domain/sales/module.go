package sales

import (
	"go.uber.org/fx"

	"github.com/yardline-app/yardline/internal/jobs"
)

// Module provides the sales repository and the link validation job
var Module = fx.Module("sales",
	fx.Provide(
		NewRepository,
		NewLinkChecker,
	),
	fx.Invoke(registerJobs),
)

func registerJobs(registry *jobs.Registry, linkCheck *LinkChecker) {
	registry.Register(jobs.TypeValidateImageLink, linkCheck.Handle)
}
