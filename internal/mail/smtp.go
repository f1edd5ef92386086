package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/nutricare/server/internal/config"
	"github.com/nutricare/server/internal/logging"
)

// SMTPMailer sends email through an SMTP relay
type SMTPMailer struct {
	cfg config.SMTPConfig
	log *slog.Logger
}

// NewSMTPMailer creates a mailer for the given relay settings
func NewSMTPMailer(cfg config.SMTPConfig, log *slog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

// Send delivers a single HTML message. A connection is opened per message.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		m.log.Error("email delivery failed", "to", logging.MaskEmail(to), "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.log.Info("email sent", "to", logging.MaskEmail(to), "subject", subject)
	return nil
}
