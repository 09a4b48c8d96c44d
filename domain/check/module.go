package check

import (
	"go.uber.org/fx"

	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

// Module provides the health check service and the host collector
var Module = fx.Module("check",
	fx.Provide(
		NewCollector,
		syshealth.NewExporter,
		NewTracker,
		NewService,
	),
)

// NewCollector creates the gopsutil backed collector.
func NewCollector(cfg *config.Config) syshealth.Collector {
	return syshealth.NewHostCollector(cfg.CollectorOptions())
}
