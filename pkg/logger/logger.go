// Package logger configures log/slog for vmhealth.
//
// Every run logs to two places: stderr diagnostics at a configurable level
// and the health journal, an append-only file with one line per event.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
)

// Module provides the run logger from a supplied Options value.
var Module = fx.Module("logger",
	fx.Provide(NewFromOptions),
)

// Scope tags a logger with the component it belongs to.
func Scope(name string) slog.Attr {
	return slog.String("scope", name)
}

// Error attaches err to a log record.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// ParseLevel maps a LOG_LEVEL value to a slog level, returning fallback for
// empty or unknown values.
func ParseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

// NewLogger creates a stderr logger from LOG_LEVEL and GO_ENV.
// It is used before configuration has been loaded.
func NewLogger() *slog.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"), slog.LevelInfo)
	opts := &slog.HandlerOptions{Level: level}

	if os.Getenv("GO_ENV") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Options configures the run logger.
type Options struct {
	// Level applies to stderr diagnostics only. The journal records INFO and above.
	Level slog.Level
	// Format is "text" or "json".
	Format string
	// Stderr receives diagnostics (default: os.Stderr).
	Stderr io.Writer
	// JournalPath is the append-only health journal. Empty disables it.
	JournalPath string
}

// New builds the run logger. The returned closer releases the journal file
// and is never nil.
func New(opts Options) (*slog.Logger, io.Closer) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	var diag slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		diag = slog.NewJSONHandler(stderr, hopts)
	} else {
		diag = slog.NewTextHandler(stderr, hopts)
	}

	if opts.JournalPath == "" {
		return slog.New(diag), nopCloser{}
	}

	f, err := OpenJournal(opts.JournalPath)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: cannot open log file %s: %v\n", opts.JournalPath, err)
		return slog.New(diag), nopCloser{}
	}

	return slog.New(Fanout(diag, NewJournalHandler(f, slog.LevelInfo))), f
}

// NewFromOptions is the fx constructor for the run logger.
func NewFromOptions(lc fx.Lifecycle, opts Options) *slog.Logger {
	log, closer := New(opts)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closer.Close()
		},
	})
	return log
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Fanout returns a handler that passes every record to each of handlers.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return fanoutHandler(handlers)
}

type fanoutHandler []slog.Handler

func (h fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range h {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, child := range h {
		if !child.Enabled(ctx, r.Level) {
			continue
		}
		if err := child.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(h))
	for i, child := range h {
		out[i] = child.WithAttrs(attrs)
	}
	return out
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(h))
	for i, child := range h {
		out[i] = child.WithGroup(name)
	}
	return out
}
