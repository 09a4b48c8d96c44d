package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/logger"
)

// Marker tags crontab lines owned by vmhealth so they can be replaced.
const Marker = "# vmhealth"

// ErrCrontabUnavailable is returned when the crontab command cannot be found.
var ErrCrontabUnavailable = errors.New("crontab command not available")

// CommandRunner runs an external command, feeding it stdin, and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, stdin string, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return stdout.String(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}

// InstallOptions describes the recurring invocation to register.
type InstallOptions struct {
	// Schedule is a standard five field cron expression.
	Schedule string
	// Executable is the absolute path of the vmhealth binary.
	Executable string
	// ConfigPath and LogPath are passed through when set.
	ConfigPath string
	LogPath    string
}

// Entry is an installed crontab line.
type Entry struct {
	Line     string
	Schedule string
	Next     time.Time
}

// CrontabInstaller registers vmhealth in the current user's crontab.
type CrontabInstaller struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
	now      func() time.Time
	log      *slog.Logger
}

// NewCrontabInstaller creates an installer that shells out to crontab(1).
func NewCrontabInstaller(log *slog.Logger) *CrontabInstaller {
	return &CrontabInstaller{
		runner:   execRunner{},
		lookPath: exec.LookPath,
		now:      time.Now,
		log:      log.With(logger.Scope("scheduler.crontab")),
	}
}

// Install adds or replaces the vmhealth crontab line. Running it again with
// the same options leaves the crontab unchanged.
func (c *CrontabInstaller) Install(ctx context.Context, opts InstallOptions) (*Entry, error) {
	sched, err := cron.ParseStandard(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", opts.Schedule, err)
	}
	if opts.Executable == "" {
		return nil, errors.New("executable path is required")
	}

	if _, err := c.lookPath("crontab"); err != nil {
		return nil, ErrCrontabUnavailable
	}

	current, err := c.runner.Run(ctx, "", "crontab", "-l")
	if err != nil {
		// crontab -l fails when the user has no crontab yet
		if !strings.Contains(strings.ToLower(err.Error()), "no crontab") {
			return nil, fmt.Errorf("failed to read crontab: %w", err)
		}
		current = ""
	}

	line := CommandLine(opts)
	updated := replaceEntry(current, line)
	if _, err := c.runner.Run(ctx, updated, "crontab", "-"); err != nil {
		return nil, fmt.Errorf("failed to write crontab: %w", err)
	}

	entry := &Entry{
		Line:     line,
		Schedule: opts.Schedule,
		Next:     sched.Next(c.now()),
	}
	c.log.Info("Cron job registered", slog.String("schedule", opts.Schedule))
	return entry, nil
}

// CommandLine builds the crontab line for opts.
func CommandLine(opts InstallOptions) string {
	parts := []string{opts.Schedule, shellQuote(opts.Executable), "--silent", "--notify"}
	if opts.ConfigPath != "" {
		parts = append(parts, "--config", shellQuote(opts.ConfigPath))
	}
	if opts.LogPath != "" {
		parts = append(parts, "--log", shellQuote(opts.LogPath))
	}
	parts = append(parts, Marker)
	return strings.Join(parts, " ")
}

// replaceEntry drops existing vmhealth lines from crontab and appends line.
func replaceEntry(crontab, line string) string {
	var b strings.Builder
	for _, l := range strings.Split(crontab, "\n") {
		if l == "" || strings.HasSuffix(strings.TrimSpace(l), Marker) {
			continue
		}
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString(line)
	b.WriteByte('\n')
	return b.String()
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t'\"\\$`;&|<>()*?[]#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
