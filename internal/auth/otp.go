// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/samber/oops"
)

// OTP parameters. Codes are drawn from [OTPMin, OTPMax], so they never start with zero.
const (
	OTPTTL    = 5 * time.Minute
	OTPMin    = 100000
	OTPMax    = 999999
	OTPDigits = 6
)

// OTPCache stores one live verification code per normalized email.
type OTPCache interface {
	// Save stores code for email, replacing any previous code and resetting
	// its failure count.
	Save(ctx context.Context, email, code string, ttl time.Duration) error

	// Get returns the live code for email, or ErrNotFound if absent or expired.
	Get(ctx context.Context, email string) (string, error)

	// Delete removes the code for email and its failure count. Deleting a
	// missing code is not an error.
	Delete(ctx context.Context, email string) error

	// RecordFailure counts one wrong guess against the live code for email
	// and returns the total. The count expires after ttl.
	RecordFailure(ctx context.Context, email string, ttl time.Duration) (int64, error)
}

// GenerateOTP returns a uniformly random code in [OTPMin, OTPMax] from crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(OTPMax-OTPMin+1))
	if err != nil {
		return "", oops.Code("OTP_RANDOM_FAILED").Wrap(err)
	}
	return strconv.FormatInt(n.Int64()+OTPMin, 10), nil
}

// IsOTPFormat reports whether code is exactly OTPDigits decimal digits.
func IsOTPFormat(code string) bool {
	if len(code) != OTPDigits {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
