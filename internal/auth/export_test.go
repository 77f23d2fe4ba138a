// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package auth

import "time"

// SetClock overrides the signer's time source in tests.
func (s *TokenSigner) SetClock(now func() time.Time) {
	s.now = now
}
