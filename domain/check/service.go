package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"

	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/notify"
	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/report"
	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/logger"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/tracing"
)

// RunOptions controls one health check.
type RunOptions struct {
	// Explain prints per-metric detail and recommendations.
	Explain bool
	// Silent suppresses stdout. The journal is still written.
	Silent bool
	// Notify sends an alert when the overall status is not OK.
	Notify bool
	// Stdout receives the report (default: os.Stdout).
	Stdout io.Writer
}

// Service runs the collect, classify, report and notify sequence.
type Service struct {
	cfg       *config.Config
	collector syshealth.Collector
	reporter  *report.Reporter
	notifier  *notify.Notifier
	exporter  *syshealth.Exporter
	tracker   *Tracker
	log       *slog.Logger

	now      func() time.Time
	hostname func() (string, error)
	newRunID func() string
}

// ServiceParams are the dependencies of NewService
type ServiceParams struct {
	fx.In
	Cfg       *config.Config
	Collector syshealth.Collector
	Reporter  *report.Reporter
	Notifier  *notify.Notifier
	Exporter  *syshealth.Exporter
	Tracker   *Tracker
	Log       *slog.Logger
}

func NewService(p ServiceParams) *Service {
	return &Service{
		cfg:       p.Cfg,
		collector: p.Collector,
		reporter:  p.Reporter,
		notifier:  p.Notifier,
		exporter:  p.Exporter,
		tracker:   p.Tracker,
		log:       p.Log.With(logger.Scope("check")),
		now:       time.Now,
		hostname:  os.Hostname,
		newRunID:  func() string { return uuid.New().String() },
	}
}

// Run performs one health check. Collection and notification problems are
// logged and never returned; the only error is a failure to write the report.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*syshealth.HealthReport, error) {
	runID := s.newRunID()
	ctx, span := tracing.Start(ctx, "check.run",
		attribute.String("vmhealth.run_id", runID),
	)
	defer span.End()

	sample := syshealth.Collect(ctx, s.collector, s.cfg.Collector.Timeout, s.log)
	s.log.Info(fmt.Sprintf("Metrics collected - CPU: %d%%, Memory: %d%%, Disk: %d%%",
		sample.CPU, sample.Memory, sample.Disk))

	result := syshealth.ClassifyReport(sample, s.cfg.Thresholds(), s.now())
	result.RunID = runID
	if host, err := s.hostname(); err == nil {
		result.Host = host
	} else {
		s.log.Debug("hostname unavailable", logger.Error(err))
	}
	span.SetAttributes(attribute.String("vmhealth.overall", result.Overall.String()))

	var renderErr error
	if !opts.Silent {
		stdout := opts.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		if err := s.reporter.Render(stdout, &result, report.Options{Explain: opts.Explain}); err != nil {
			renderErr = fmt.Errorf("failed to write report: %w", err)
		}
	}

	s.notifier.Notify(ctx, &result, opts.Notify)

	s.exporter.Observe(&result)
	if s.cfg.MetricsFile != "" {
		if err := s.exporter.WriteTextfile(s.cfg.MetricsFile); err != nil {
			s.log.Warn("failed to write metrics file",
				slog.String("path", s.cfg.MetricsFile),
				logger.Error(err))
		}
	}

	s.tracker.Set(&result)
	s.log.Info("Health check completed - Overall status: " + result.Overall.String())

	return &result, renderErr
}
