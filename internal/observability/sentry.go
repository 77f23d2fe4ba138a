// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/samber/oops"
)

// SentryFlushTimeout bounds how long FlushSentry waits for queued events.
const SentryFlushTimeout = 2 * time.Second

// InitSentry configures the global Sentry client. An empty dsn leaves
// reporting disabled and returns false.
func InitSentry(dsn, environment, release string) (bool, error) {
	if dsn == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, oops.Code("SENTRY_INIT_FAILED").With("environment", environment).Wrap(err)
	}
	return true, nil
}

// FlushSentry waits for buffered events to be sent.
func FlushSentry() {
	sentry.Flush(SentryFlushTimeout)
}
