package scheduler

import (
	"context"

	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/check"
)

// HealthCheckTask is the name of the periodic health check in watch mode.
const HealthCheckTask = "health_check"

// NewHealthCheckTask wraps one check.Service run as a scheduled task.
func NewHealthCheckTask(svc *check.Service, opts check.RunOptions) TaskFunc {
	return func(ctx context.Context) error {
		_, err := svc.Run(ctx, opts)
		return err
	}
}
