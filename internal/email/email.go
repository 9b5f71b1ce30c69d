package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs emails instead of sending them. Used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("email (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API. Used in staging/production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// VerificationBody renders the verify-email message pointing at link.
func VerificationBody(username, link string) (subject, body string) {
	subject = "Verify your email"
	body = fmt.Sprintf(
		`<p>Hi %s,</p><p>Welcome aboard! Click the link below to verify your email (expires in 24 hours):</p><p><a href="%s">%s</a></p>`,
		username, link, link,
	)
	return subject, body
}

// PasswordResetBody renders the reset-password message pointing at link.
func PasswordResetBody(username, link string) (subject, body string) {
	subject = "Reset your password"
	body = fmt.Sprintf(
		`<p>Hi %s,</p><p>We got a request to reset your password. Click the link below to choose a new one (expires in 1 hour):</p><p><a href="%s">%s</a></p>`,
		username, link, link,
	)
	return subject, body
}
