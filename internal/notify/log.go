// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package notify

import (
	"context"
	"log/slog"

	"github.com/Aytsuu/Skwela/internal/auth"
)

// LogNotifier writes codes to the log instead of sending them.
// It is meant for local development without an SMTP server.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a LogNotifier. A nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendOTP logs the code at warn level so it stands out in development output.
func (n *LogNotifier) SendOTP(ctx context.Context, email, code string) error {
	n.logger.WarnContext(ctx, "verification code (development sink, not emailed)",
		"email", email,
		"code", code)
	return nil
}

// Compile-time interface check.
var _ auth.Notifier = (*LogNotifier)(nil)
