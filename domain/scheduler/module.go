package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/internal/jobs"
)

// Module provides the cron triggers for the recurring jobs
var Module = fx.Module("scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(
		RegisterTasks,
		RegisterSchedulerLifecycle,
	),
)

// TaskParams contains dependencies for registering the scheduled tasks
type TaskParams struct {
	fx.In
	Scheduler *Scheduler
	Repo      *jobs.Repository
	Log       *slog.Logger
	Cfg       *config.Config
}

// RegisterTasks wires each recurring job type to its cron expression
func RegisterTasks(p TaskParams) error {
	if !p.Cfg.Scheduler.Enabled {
		p.Log.Info("scheduler disabled, skipping task registration")
		return nil
	}

	sc := p.Cfg.Scheduler

	type taskEntry struct {
		name     string
		schedule string
		jobType  jobs.JobType
		payload  any
	}

	entries := []taskEntry{
		{"daily_rollup", sc.DailyRollupSchedule, jobs.TypeDailyRollup, nil},
		{"starting_soon_digest", sc.StartingSoonSchedule, jobs.TypeStartingSoon, nil},
		{"weekly_digest", sc.WeeklyDigestSchedule, jobs.TypeWeeklyAnalytics, nil},
	}
	for _, scan := range orphanScans() {
		entries = append(entries, taskEntry{
			"orphan_cleanup_" + scan.ItemType, sc.OrphanCleanupSchedule, jobs.TypeOrphanCleanup, scan,
		})
	}

	for _, e := range entries {
		task := NewEnqueueTask(p.Repo, e.jobType, e.payload, p.Log)
		if err := p.Scheduler.AddCronTask(e.name, e.schedule, task.Run); err != nil {
			return fmt.Errorf("register task %s: %w", e.name, err)
		}
	}

	p.Log.Info("registered scheduled tasks",
		slog.Any("tasks", p.Scheduler.ListTasks()))
	return nil
}

// RegisterSchedulerLifecycle registers the scheduler with fx lifecycle
func RegisterSchedulerLifecycle(lc fx.Lifecycle, scheduler *Scheduler, cfg *config.Config) {
	if !cfg.Scheduler.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
}
