// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package auth

// Verification attempt limiting.
const (
	// OTPAttemptLimit is the number of wrong guesses after which the live
	// code is revoked and a new one must be requested.
	OTPAttemptLimit = 5
)

// OTPAttemptResult contains the result of an attempt limit check.
type OTPAttemptResult struct {
	// Remaining is the number of guesses left on the live code.
	Remaining int

	// Exhausted indicates the live code must be revoked.
	Exhausted bool
}

// CheckOTPFailures evaluates the attempt limit for a failure count recorded
// against the live code.
func CheckOTPFailures(failures int64) OTPAttemptResult {
	if failures >= OTPAttemptLimit {
		return OTPAttemptResult{Exhausted: true}
	}
	if failures < 0 {
		failures = 0
	}
	return OTPAttemptResult{Remaining: OTPAttemptLimit - int(failures)}
}
