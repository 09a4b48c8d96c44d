package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/aymerick/raymond"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/logger"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/tracing"
)

// Result is the delivery outcome for one transport.
type Result struct {
	Transport string
	Err       error
}

// Notifier dispatches alerts for unhealthy reports.
type Notifier struct {
	transports Transports
	template   *raymond.Template
	timeout    time.Duration
	log        *slog.Logger
}

// NewNotifier creates a notifier. A nil template selects the built-in one and
// a non-positive timeout disables the per-transport deadline.
func NewNotifier(transports Transports, tmpl *raymond.Template, timeout time.Duration, log *slog.Logger) *Notifier {
	if tmpl == nil {
		tmpl = DefaultTemplate()
	}
	return &Notifier{
		transports: transports,
		template:   tmpl,
		timeout:    timeout,
		log:        log.With(logger.Scope("notify")),
	}
}

// Notify sends report through every transport when enabled is set and the
// overall status is not OK. Failures are logged and returned, never raised.
func (n *Notifier) Notify(ctx context.Context, report *syshealth.HealthReport, enabled bool) []Result {
	if !enabled || !report.Unhealthy() {
		return nil
	}

	if len(n.transports) == 0 {
		n.log.Info("Notifications enabled but no transport configured")
		return nil
	}

	ctx, span := tracing.Start(ctx, "notify.dispatch",
		attribute.String("vmhealth.overall", report.Overall.String()),
		attribute.Int("vmhealth.transports", len(n.transports)),
	)
	defer span.End()

	msg, err := BuildMessage(report, n.template)
	if err != nil {
		n.log.Warn("alert template failed, using built-in template", logger.Error(err))
		if msg, err = BuildMessage(report, nil); err != nil {
			n.log.Error("Notification failed", logger.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "render failed")
			return []Result{{Transport: "template", Err: err}}
		}
	}

	results := make([]Result, 0, len(n.transports))
	for _, t := range n.transports {
		err := n.send(ctx, t, msg)
		if err != nil {
			n.log.Error("Notification failed via "+t.Name(), logger.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "delivery failed")
		} else {
			n.log.Info("Notification sent via "+t.Name(), slog.String("subject", msg.Subject))
		}
		results = append(results, Result{Transport: t.Name(), Err: err})
	}
	return results
}

func (n *Notifier) send(ctx context.Context, t Transport, msg Message) error {
	ctx, span := tracing.Start(ctx, "notify.send",
		attribute.String("vmhealth.transport", t.Name()),
	)
	defer span.End()

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	err := t.Send(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
