package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/logger"
)

// mailSender sends a plain text email and returns the provider message ID.
type mailSender interface {
	Send(ctx context.Context, from, subject, text string, to []string) (string, error)
}

// mailgunClient adapts the Mailgun SDK to mailSender.
type mailgunClient struct {
	mg *mailgun.MailgunImpl
}

func (c *mailgunClient) Send(ctx context.Context, from, subject, text string, to []string) (string, error) {
	message := c.mg.NewMessage(from, subject, text, to...)
	_, id, err := c.mg.Send(ctx, message)
	return id, err
}

// MailgunTransport emails alerts through Mailgun.
type MailgunTransport struct {
	from   string
	to     []string
	client mailSender
	log    *slog.Logger
}

// NewMailgunTransport creates an email transport.
// Returns nil if Mailgun is not configured.
func NewMailgunTransport(cfg config.EmailConfig, log *slog.Logger) *MailgunTransport {
	if !cfg.IsConfigured() {
		return nil
	}

	client := &mailgunClient{mg: mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey)}
	return newMailgunTransport(cfg.FromEmail, cfg.Recipients(), client, log)
}

func newMailgunTransport(from string, to []string, client mailSender, log *slog.Logger) *MailgunTransport {
	return &MailgunTransport{
		from:   from,
		to:     to,
		client: client,
		log:    log.With(logger.Scope("notify.mailgun")),
	}
}

func (t *MailgunTransport) Name() string { return "email" }

// Send emails msg to every configured recipient in one message.
func (t *MailgunTransport) Send(ctx context.Context, msg Message) error {
	id, err := t.client.Send(ctx, t.from, msg.Subject, msg.Body, t.to)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}

	t.log.Debug("email sent",
		slog.Int("recipients", len(t.to)),
		slog.String("message_id", id))
	return nil
}
