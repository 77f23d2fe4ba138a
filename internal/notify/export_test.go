// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package notify

import (
	"context"

	"github.com/wneessen/go-mail"
)

// SenderFunc adapts a function to the SMTP client interface.
type SenderFunc func(ctx context.Context, messages ...*mail.Msg) error

func (f SenderFunc) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	return f(ctx, messages...)
}

// NewMailerWithSender builds a Mailer around a stub client.
func NewMailerWithSender(s SenderFunc, from string, opts ...MailerOption) *Mailer {
	return newMailer(s, from, opts...)
}
