// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

// Package notify delivers verification codes by email.
package notify

import (
	"context"
	"errors"
	"html/template"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/wneessen/go-mail"

	"github.com/Aytsuu/Skwela/internal/auth"
)

// Message constants for the verification email.
const (
	SenderName = "Skwela Security"
	Subject    = "Your Skwela Verification Code"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>Verify your email</h2>
  <p>Use the code below to finish signing in to Skwela.</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
</body>
</html>`))

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS is "mandatory", "opportunistic" or "none".
	TLS     string
	Timeout time.Duration
}

// RetryPolicy bounds delivery attempts.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy retries twice with exponential backoff starting at 500ms.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 2, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}

// sender is the part of *mail.Client the Mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends verification codes over SMTP.
type Mailer struct {
	client sender
	from   string
	retry  RetryPolicy
}

// MailerOption configures a Mailer.
type MailerOption func(*Mailer)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) MailerOption {
	return func(m *Mailer) {
		m.retry = p
	}
}

// NewMailer builds an SMTP client for cfg.
func NewMailer(cfg SMTPConfig, opts ...MailerOption) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, oops.Code("SMTP_CONFIG_INVALID").With("field", "host").Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("SMTP_CONFIG_INVALID").With("field", "from").Errorf("sender address is required")
	}

	clientOpts := []mail.Option{mail.WithTLSPortPolicy(tlsPolicy(cfg.TLS))}
	if cfg.Port > 0 {
		clientOpts = append(clientOpts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		return nil, oops.Code("SMTP_CONFIG_INVALID").With("host", cfg.Host).Wrap(err)
	}
	return newMailer(client, cfg.From, opts...), nil
}

func newMailer(client sender, from string, opts ...MailerOption) *Mailer {
	m := &Mailer{client: client, from: from, retry: DefaultRetryPolicy}
	for _, opt := range opts {
		opt(m)
	}
	if m.retry.BaseDelay <= 0 {
		m.retry.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	return m
}

func tlsPolicy(s string) mail.TLSPolicy {
	switch s {
	case "none":
		return mail.NoTLS
	case "opportunistic":
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}

// SendOTP renders and sends the verification email, retrying transient failures.
func (m *Mailer) SendOTP(ctx context.Context, email, code string) error {
	msg, err := m.message(email, code)
	if err != nil {
		return err
	}

	backoff := retry.NewExponential(m.retry.BaseDelay)
	if m.retry.MaxDelay > 0 {
		backoff = retry.WithCappedDuration(m.retry.MaxDelay, backoff)
	}
	backoff = retry.WithMaxRetries(m.retry.MaxRetries, backoff)

	attempts := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if sendErr := m.client.DialAndSendWithContext(ctx, msg); sendErr != nil {
			if permanent(sendErr) {
				return sendErr
			}
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		return oops.Code("SMTP_SEND_FAILED").
			With("attempts", attempts).
			Wrap(err)
	}
	return nil
}

func (m *Mailer) message(email, code string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(SenderName, m.from); err != nil {
		return nil, oops.Code("SMTP_MESSAGE_INVALID").With("field", "from").Wrap(err)
	}
	if err := msg.To(email); err != nil {
		return nil, oops.Code("SMTP_MESSAGE_INVALID").With("field", "to").Wrap(err)
	}
	msg.Subject(Subject)

	data := struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(auth.OTPTTL / time.Minute)}
	if err := msg.SetBodyHTMLTemplate(otpTemplate, data); err != nil {
		return nil, oops.Code("SMTP_MESSAGE_INVALID").With("field", "body").Wrap(err)
	}
	return msg, nil
}

// permanent reports whether the server rejected the message for good.
func permanent(err error) bool {
	var sendErr *mail.SendError
	return errors.As(err, &sendErr) && !sendErr.IsTemp()
}

// Compile-time interface check.
var _ auth.Notifier = (*Mailer)(nil)
