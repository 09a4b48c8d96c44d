package scheduler

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/check"
	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
)

// Module provides the in-process scheduler used by --watch
var Module = fx.Module("scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(
		RegisterTasks,
		RegisterSchedulerLifecycle,
	),
)

// TaskParams contains dependencies for creating scheduled tasks
type TaskParams struct {
	fx.In
	Scheduler *Scheduler
	Service   *check.Service
	Options   check.RunOptions
	Cfg       *config.Config
	Log       *slog.Logger
}

// RegisterTasks registers the periodic health check.
func RegisterTasks(p TaskParams) error {
	if err := p.Scheduler.AddCronTask(HealthCheckTask, p.Cfg.Schedule.Cron,
		NewHealthCheckTask(p.Service, p.Options)); err != nil {
		return err
	}

	p.Log.Debug("registered scheduled tasks",
		slog.Any("tasks", p.Scheduler.ListTasks()))
	return nil
}

// RegisterSchedulerLifecycle starts the scheduler with the app and runs the
// first check immediately.
func RegisterSchedulerLifecycle(lc fx.Lifecycle, scheduler *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := scheduler.Start(ctx); err != nil {
				return err
			}
			scheduler.RunNow(HealthCheckTask)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
}
