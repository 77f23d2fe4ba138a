// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package auth

import "context"

// Notifier delivers verification codes to users.
type Notifier interface {
	// SendOTP hands the code to the delivery channel. Implementations may
	// return before delivery completes.
	SendOTP(ctx context.Context, email, code string) error
}
