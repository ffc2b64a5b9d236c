package jobs

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the job queue core. Domain modules register their handlers
// on the Registry in fx.Invoke hooks; the worker lifecycle starts only after
// every registration has run.
var Module = fx.Module("jobs",
	fx.Provide(
		NewRegistry,
		NewRepository,
		NewDispatcher,
		NewWorker,
	),
	fx.Invoke(registerWorkerLifecycle),
)

func registerWorkerLifecycle(lc fx.Lifecycle, worker *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return worker.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return worker.Stop(ctx)
		},
	})
}
