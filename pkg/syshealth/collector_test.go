package syshealth

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollector struct {
	cpu, memory, disk          float64
	cpuErr, memoryErr, diskErr error
	delay                      time.Duration
}

func (f *fakeCollector) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeCollector) CPUPercent(ctx context.Context) (float64, error) {
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	return f.cpu, f.cpuErr
}

func (f *fakeCollector) MemoryPercent(ctx context.Context) (float64, error) {
	return f.memory, f.memoryErr
}

func (f *fakeCollector) DiskPercent(ctx context.Context) (float64, error) {
	return f.disk, f.diskErr
}

func TestCollect_RoundsReadings(t *testing.T) {
	c := &fakeCollector{cpu: 44.6, memory: 50.2, disk: 39.5}
	sample := Collect(context.Background(), c, time.Second, slog.Default())
	assert.Equal(t, Sample{CPU: 45, Memory: 50, Disk: 40}, sample)
}

func TestCollect_FailuresBecomeZero(t *testing.T) {
	c := &fakeCollector{
		cpu:       70,
		memoryErr: errors.New("meminfo unavailable"),
		disk:      math.NaN(),
	}
	sample := Collect(context.Background(), c, time.Second, slog.Default())
	assert.Equal(t, Sample{CPU: 70, Memory: 0, Disk: 0}, sample)
}

func TestCollect_Timeout(t *testing.T) {
	c := &fakeCollector{cpu: 90, memory: 20, disk: 30, delay: time.Second}
	start := time.Now()
	sample := Collect(context.Background(), c, 20*time.Millisecond, slog.Default())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, Sample{CPU: 0, Memory: 20, Disk: 30}, sample)
}

func TestHostCollector_Readings(t *testing.T) {
	c := NewHostCollector(CollectorConfig{DiskPath: "/data"})

	var gotInterval time.Duration
	var gotPath string
	c.getCPUPercent = func(ctx context.Context, d time.Duration, percpu bool) ([]float64, error) {
		gotInterval = d
		assert.False(t, percpu)
		return []float64{12.5}, nil
	}
	c.getMemStats = func(ctx context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{UsedPercent: 63.4}, nil
	}
	c.getDiskUsage = func(ctx context.Context, path string) (*disk.UsageStat, error) {
		gotPath = path
		return &disk.UsageStat{UsedPercent: 81.9}, nil
	}

	sample := Collect(context.Background(), c, c.Timeout(), slog.Default())
	assert.Equal(t, Sample{CPU: 13, Memory: 63, Disk: 82}, sample)
	assert.Equal(t, time.Second, gotInterval)
	assert.Equal(t, "/data", gotPath)
	assert.Equal(t, 5*time.Second, c.Timeout())
}

func TestHostCollector_Errors(t *testing.T) {
	c := NewHostCollector(DefaultCollectorConfig())
	c.getCPUPercent = func(ctx context.Context, d time.Duration, percpu bool) ([]float64, error) {
		return []float64{}, nil
	}
	c.getMemStats = func(ctx context.Context) (*mem.VirtualMemoryStat, error) {
		return nil, errors.New("failed")
	}
	c.getDiskUsage = func(ctx context.Context, path string) (*disk.UsageStat, error) {
		return nil, errors.New("failed")
	}

	_, err := c.CPUPercent(context.Background())
	require.ErrorIs(t, err, errNoCPUData)

	sample := Collect(context.Background(), c, time.Second, slog.Default())
	assert.Equal(t, Sample{}, sample)
}
