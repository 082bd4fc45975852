// Package mailer delivers report emails over SMTP using
// github.com/wneessen/go-mail.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"newsmood/internal/config"
	"newsmood/internal/resilience/retry"
	"newsmood/internal/usecase/report"
)

// SMTP implements report.Mailer against a configured mail relay.
type SMTP struct {
	cfg         config.Report
	retryConfig retry.Config
}

// NewSMTP creates an SMTP mailer. The configuration may be incomplete: Send
// then becomes a logged no-op, never an error.
func NewSMTP(cfg config.Report) *SMTP {
	return &SMTP{
		cfg:         cfg,
		retryConfig: retry.MailConfig(),
	}
}

// Send delivers one report email to all configured recipients. A missing
// recipient list or SMTP relay is logged and swallowed: report generation
// must not fail because delivery is unconfigured or the relay is down.
func (s *SMTP) Send(ctx context.Context, subject, body string, attachment *report.Attachment) error {
	if !s.cfg.Configured() {
		slog.Error("report mail skipped: missing recipients or SMTP configuration",
			slog.String("subject", subject))
		return nil
	}

	msg, err := s.buildMessage(subject, body, attachment)
	if err != nil {
		slog.Error("report mail skipped: could not build message",
			slog.String("subject", subject),
			slog.Any("error", err))
		return nil
	}

	client, err := s.buildClient()
	if err != nil {
		slog.Error("report mail skipped: could not build SMTP client",
			slog.String("host", s.cfg.SMTP.Host),
			slog.Any("error", err))
		return nil
	}

	sendErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
		return client.DialAndSendWithContext(ctx, msg)
	})
	if sendErr != nil {
		slog.Error("report mail delivery failed",
			slog.String("subject", subject),
			slog.Int("recipients", len(s.cfg.Recipients)),
			slog.Any("error", sendErr))
		return nil
	}

	slog.Info("report mail sent",
		slog.String("subject", subject),
		slog.Int("recipients", len(s.cfg.Recipients)))
	return nil
}

func (s *SMTP) buildMessage(subject, body string, attachment *report.Attachment) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.SMTP.User); err != nil {
		return nil, fmt.Errorf("buildMessage: from address: %w", err)
	}
	if err := msg.To(s.cfg.Recipients...); err != nil {
		return nil, fmt.Errorf("buildMessage: recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if attachment != nil {
		if attachment.Filename == "" {
			return nil, errors.New("buildMessage: attachment without filename")
		}
		msg.AttachReader(attachment.Filename, attachment.Reader())
	}

	return msg, nil
}

func (s *SMTP) buildClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.SMTP.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.SMTP.User),
		mail.WithPassword(s.cfg.SMTP.Password),
	}
	if s.cfg.SMTP.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(s.cfg.SMTP.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("buildClient: %w", err)
	}
	return client, nil
}
