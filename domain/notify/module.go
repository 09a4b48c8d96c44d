package notify

import (
	"context"
	"log/slog"

	"github.com/aymerick/raymond"
	"go.uber.org/fx"

	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/logger"
)

// Module provides the alert notifier and its transports
var Module = fx.Module("notify",
	fx.Provide(
		NewTransports, // SNS and/or Mailgun, empty when neither is configured
		NewNotifierFromConfig,
	),
)

// NewTransports builds every configured transport. A transport that cannot be
// set up is logged and left out so the health check still runs.
func NewTransports(cfg *config.Config, log *slog.Logger) Transports {
	log = log.With(logger.Scope("notify"))
	var transports Transports

	if cfg.SNS.IsConfigured() {
		t, err := NewSNSTransport(context.Background(), cfg.SNS, log)
		if err != nil {
			log.Warn("SNS transport unavailable", logger.Error(err))
		} else {
			log.Debug("using SNS transport",
				slog.String("topic_arn", cfg.SNS.TopicARN),
				slog.String("region", cfg.SNS.Region))
			transports = append(transports, t)
		}
	}

	if t := NewMailgunTransport(cfg.Email, log); t != nil {
		log.Debug("using Mailgun transport",
			slog.String("domain", cfg.Email.MailgunDomain),
			slog.String("from", cfg.Email.FromEmail))
		transports = append(transports, t)
	}

	return transports
}

// NewNotifierFromConfig creates the notifier, loading NOTIFY_TEMPLATE when set.
func NewNotifierFromConfig(cfg *config.Config, transports Transports, log *slog.Logger) *Notifier {
	var tmpl *raymond.Template
	if cfg.Notify.TemplatePath != "" {
		t, err := LoadTemplate(cfg.Notify.TemplatePath)
		if err != nil {
			log.Warn("using built-in alert template", logger.Scope("notify"), logger.Error(err))
		} else {
			tmpl = t
		}
	}
	return NewNotifier(transports, tmpl, cfg.Notify.Timeout, log)
}
