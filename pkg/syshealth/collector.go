package syshealth

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/logger"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/tracing"
)

// Collector reads current utilization of each resource family as a percentage.
type Collector interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskPercent(ctx context.Context) (float64, error)
}

// CollectorConfig controls how the host collector samples.
type CollectorConfig struct {
	// CPUInterval is the window over which CPU busy time is measured (default: 1s).
	CPUInterval time.Duration
	// DiskPath is the mount point whose usage is reported (default: "/").
	DiskPath string
	// Timeout bounds each individual reading (default: 5s).
	Timeout time.Duration
}

// DefaultCollectorConfig returns the collector settings used when none are configured.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		CPUInterval: time.Second,
		DiskPath:    "/",
		Timeout:     5 * time.Second,
	}
}

var errNoCPUData = errors.New("no cpu data returned")

// HostCollector reads metrics from the local machine through gopsutil.
type HostCollector struct {
	cfg CollectorConfig

	// Collection functions for mocking
	getCPUPercent func(context.Context, time.Duration, bool) ([]float64, error)
	getMemStats   func(context.Context) (*mem.VirtualMemoryStat, error)
	getDiskUsage  func(context.Context, string) (*disk.UsageStat, error)
}

// NewHostCollector creates a gopsutil backed collector.
func NewHostCollector(cfg CollectorConfig) *HostCollector {
	def := DefaultCollectorConfig()
	if cfg.CPUInterval <= 0 {
		cfg.CPUInterval = def.CPUInterval
	}
	if cfg.DiskPath == "" {
		cfg.DiskPath = def.DiskPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &HostCollector{
		cfg:           cfg,
		getCPUPercent: cpu.PercentWithContext,
		getMemStats:   mem.VirtualMemoryWithContext,
		getDiskUsage:  disk.UsageWithContext,
	}
}

// Timeout is the per-reading deadline configured for this collector.
func (c *HostCollector) Timeout() time.Duration {
	return c.cfg.Timeout
}

func (c *HostCollector) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := c.getCPUPercent(ctx, c.cfg.CPUInterval, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errNoCPUData
	}
	return percents[0], nil
}

func (c *HostCollector) MemoryPercent(ctx context.Context) (float64, error) {
	v, err := c.getMemStats(ctx)
	if err != nil {
		return 0, err
	}
	return v.UsedPercent, nil
}

func (c *HostCollector) DiskPercent(ctx context.Context) (float64, error) {
	u, err := c.getDiskUsage(ctx, c.cfg.DiskPath)
	if err != nil {
		return 0, err
	}
	return u.UsedPercent, nil
}

// Collect samples every resource from c. A reading that fails, times out or
// is not a finite number is reported as 0 so the check can still complete.
func Collect(ctx context.Context, c Collector, timeout time.Duration, log *slog.Logger) Sample {
	ctx, span := tracing.Start(ctx, "syshealth.collect")
	defer span.End()

	log = log.With(logger.Scope("syshealth.collector"))
	read := func(r Resource, fn func(context.Context) (float64, error)) int {
		readCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			readCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		v, err := fn(readCtx)
		if err != nil {
			log.Warn("failed to collect "+string(r)+" usage, using 0", logger.Error(err))
			return 0
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			log.Warn("invalid "+string(r)+" usage reading, using 0", slog.Float64("value", v))
			return 0
		}
		return int(math.Round(v))
	}

	return Sample{
		CPU:    read(ResourceCPU, c.CPUPercent),
		Memory: read(ResourceMemory, c.MemoryPercent),
		Disk:   read(ResourceDisk, c.DiskPercent),
	}
}
