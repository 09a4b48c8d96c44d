package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_IsRunning(t *testing.T) {
	s := NewScheduler(discardLogger())
	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	// starting twice is a no-op
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_AddCronTask(t *testing.T) {
	s := NewScheduler(discardLogger())
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.AddCronTask("health_check", "*/5 * * * *", noop))
	assert.Equal(t, []string{"health_check"}, s.ListTasks())

	// replacing keeps a single entry
	require.NoError(t, s.AddCronTask("health_check", "0 * * * *", noop))
	info := s.GetTaskInfo()
	require.Len(t, info, 1)
	assert.Equal(t, "0 * * * *", info[0].Schedule)
	assert.Equal(t, 0, info[0].NextRun.Minute())
	assert.True(t, info[0].NextRun.After(time.Now()))

	s.RemoveTask("health_check")
	assert.Empty(t, s.ListTasks())
	assert.Empty(t, s.GetTaskInfo())
}

func TestScheduler_AddCronTask_InvalidSchedule(t *testing.T) {
	s := NewScheduler(discardLogger())
	noop := func(ctx context.Context) error { return nil }

	// seconds are not accepted
	assert.Error(t, s.AddCronTask("bad", "*/10 * * * * *", noop))
	assert.Error(t, s.AddCronTask("bad", "every five minutes", noop))
	assert.Empty(t, s.ListTasks())
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(discardLogger())
	var runs atomic.Int32
	done := make(chan struct{}, 1)

	require.NoError(t, s.AddCronTask("health_check", "0 0 1 1 *", func(ctx context.Context) error {
		runs.Add(1)
		done <- struct{}{}
		return errors.New("failures are logged, not raised")
	}))

	assert.False(t, s.RunNow("unknown"))
	require.True(t, s.RunNow("health_check"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s := NewScheduler(discardLogger())
	var runs atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	require.NoError(t, s.AddCronTask("slow", "0 0 1 1 *", func(ctx context.Context) error {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}))
	require.NoError(t, s.Start(context.Background()))

	require.True(t, s.RunNow("slow"))
	<-started
	require.True(t, s.RunNow("slow"))
	time.Sleep(50 * time.Millisecond)
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), runs.Load())
}
