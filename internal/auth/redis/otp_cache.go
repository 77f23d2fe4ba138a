// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

// Package redis provides Redis-backed storage for auth.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/Aytsuu/Skwela/internal/auth"
)

// Key prefixes for verification codes and their wrong-guess counters.
const (
	OTPKeyPrefix        = "otp:"
	OTPAttemptKeyPrefix = "otp_attempts:"
)

// OTPCache implements auth.OTPCache using Redis string keys with TTL.
type OTPCache struct {
	client goredis.Cmdable
}

// NewOTPCache creates a new OTPCache.
func NewOTPCache(client goredis.Cmdable) *OTPCache {
	return &OTPCache{client: client}
}

// Key returns the Redis key holding the code for email.
func Key(email string) string {
	return OTPKeyPrefix + auth.NormalizeEmail(email)
}

// AttemptKey returns the Redis key counting wrong guesses for email.
func AttemptKey(email string) string {
	return OTPAttemptKeyPrefix + auth.NormalizeEmail(email)
}

// Save stores code for email, replacing any previous code and TTL. The
// failure counter is reset in the same transaction.
func (c *OTPCache) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	if ttl <= 0 {
		return oops.Code("OTP_SAVE_FAILED").With("ttl", ttl).Errorf("ttl must be positive")
	}
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, Key(email), code, ttl)
		pipe.Del(ctx, AttemptKey(email))
		return nil
	})
	if err != nil {
		return oops.Code("OTP_SAVE_FAILED").
			With("operation", "set").
			Wrap(err)
	}
	return nil
}

// Get returns the live code for email, or auth.ErrNotFound.
func (c *OTPCache) Get(ctx context.Context, email string) (string, error) {
	code, err := c.client.Get(ctx, Key(email)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", oops.Code("OTP_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return "", oops.Code("OTP_GET_FAILED").
			With("operation", "get").
			Wrap(err)
	}
	return code, nil
}

// Delete removes the code for email and its failure counter.
func (c *OTPCache) Delete(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, Key(email), AttemptKey(email)).Err(); err != nil {
		return oops.Code("OTP_DELETE_FAILED").
			With("operation", "del").
			Wrap(err)
	}
	return nil
}

// RecordFailure increments the wrong-guess counter for email. The first
// increment starts the counter's TTL.
func (c *OTPCache) RecordFailure(ctx context.Context, email string, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, oops.Code("OTP_ATTEMPT_FAILED").With("ttl", ttl).Errorf("ttl must be positive")
	}
	key := AttemptKey(email)
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, oops.Code("OTP_ATTEMPT_FAILED").
			With("operation", "incr").
			Wrap(err)
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, oops.Code("OTP_ATTEMPT_FAILED").
				With("operation", "expire").
				Wrap(err)
		}
	}
	return count, nil
}

// Compile-time interface check.
var _ auth.OTPCache = (*OTPCache)(nil)
