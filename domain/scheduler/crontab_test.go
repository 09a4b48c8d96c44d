package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	crontab string
	readErr error
	writes  []string
}

func (f *fakeRunner) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	switch strings.Join(args, " ") {
	case "-l":
		return f.crontab, f.readErr
	case "-":
		f.writes = append(f.writes, stdin)
		f.crontab = stdin
		f.readErr = nil
		return "", nil
	}
	return "", fmt.Errorf("unexpected command %s %v", name, args)
}

func newTestInstaller(runner CommandRunner) *CrontabInstaller {
	c := NewCrontabInstaller(discardLogger())
	c.runner = runner
	c.lookPath = func(string) (string, error) { return "/usr/bin/crontab", nil }
	c.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }
	return c
}

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name string
		opts InstallOptions
		want string
	}{
		{
			name: "defaults",
			opts: InstallOptions{Schedule: "*/5 * * * *", Executable: "/usr/local/bin/vmhealth"},
			want: "*/5 * * * * /usr/local/bin/vmhealth --silent --notify # vmhealth",
		},
		{
			name: "config and log",
			opts: InstallOptions{
				Schedule:   "*/5 * * * *",
				Executable: "/usr/local/bin/vmhealth",
				ConfigPath: "/etc/vm health.conf",
				LogPath:    "/var/log/vmhealth.log",
			},
			want: "*/5 * * * * /usr/local/bin/vmhealth --silent --notify --config '/etc/vm health.conf' --log /var/log/vmhealth.log # vmhealth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommandLine(tt.opts))
		})
	}
}

func TestInstall_EmptyCrontab(t *testing.T) {
	runner := &fakeRunner{readErr: errors.New("crontab: exit status 1: no crontab for root")}
	c := newTestInstaller(runner)

	entry, err := c.Install(context.Background(), InstallOptions{Schedule: "*/5 * * * *", Executable: "/usr/local/bin/vmhealth"})
	require.NoError(t, err)

	assert.Equal(t, "*/5 * * * * /usr/local/bin/vmhealth --silent --notify # vmhealth", entry.Line)
	assert.True(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC).Equal(entry.Next), entry.Next)
	require.Len(t, runner.writes, 1)
	assert.Equal(t, entry.Line+"\n", runner.writes[0])
}

func TestInstall_KeepsOtherEntriesAndIsIdempotent(t *testing.T) {
	runner := &fakeRunner{crontab: "MAILTO=ops@example.com\n0 3 * * * /usr/bin/backup\n*/10 * * * * /opt/old/vmhealth --silent --notify # vmhealth\n"}
	c := newTestInstaller(runner)
	opts := InstallOptions{Schedule: "*/5 * * * *", Executable: "/usr/local/bin/vmhealth"}

	_, err := c.Install(context.Background(), opts)
	require.NoError(t, err)
	_, err = c.Install(context.Background(), opts)
	require.NoError(t, err)

	want := "MAILTO=ops@example.com\n0 3 * * * /usr/bin/backup\n*/5 * * * * /usr/local/bin/vmhealth --silent --notify # vmhealth\n"
	require.Len(t, runner.writes, 2)
	assert.Equal(t, want, runner.writes[0])
	assert.Equal(t, want, runner.writes[1])
}

func TestInstall_Errors(t *testing.T) {
	opts := InstallOptions{Schedule: "*/5 * * * *", Executable: "/usr/local/bin/vmhealth"}

	t.Run("crontab missing", func(t *testing.T) {
		c := newTestInstaller(&fakeRunner{})
		c.lookPath = func(string) (string, error) { return "", errors.New("not found") }
		_, err := c.Install(context.Background(), opts)
		assert.ErrorIs(t, err, ErrCrontabUnavailable)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		runner := &fakeRunner{}
		c := newTestInstaller(runner)
		_, err := c.Install(context.Background(), InstallOptions{Schedule: "61 * * * *", Executable: "/usr/local/bin/vmhealth"})
		assert.Error(t, err)
		assert.Empty(t, runner.writes)
	})

	t.Run("read failure", func(t *testing.T) {
		runner := &fakeRunner{readErr: errors.New("crontab: permission denied")}
		c := newTestInstaller(runner)
		_, err := c.Install(context.Background(), opts)
		assert.ErrorContains(t, err, "failed to read crontab")
		assert.Empty(t, runner.writes)
	})

	t.Run("missing executable", func(t *testing.T) {
		c := newTestInstaller(&fakeRunner{})
		_, err := c.Install(context.Background(), InstallOptions{Schedule: "*/5 * * * *"})
		assert.Error(t, err)
	})
}
