// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/Aytsuu/Skwela/internal/auth"
	"github.com/Aytsuu/Skwela/internal/auth/postgres"
	"github.com/Aytsuu/Skwela/internal/config"
	"github.com/Aytsuu/Skwela/internal/notify"
	"github.com/Aytsuu/Skwela/internal/observability"
	"github.com/Aytsuu/Skwela/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolFactory opens the PostgreSQL pool.
	// Default: store.NewPool
	PoolFactory func(ctx context.Context, url string, cfg store.PoolConfig) (Pool, error)

	// RedisFactory creates the Redis client for the OTP cache.
	// Default: goredis.NewClient
	RedisFactory func(cfg config.RedisConfig) goredis.UniversalClient

	// MigratorFactory creates a migrator for --auto-migrate.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (AutoMigrator, error)

	// NotifierFactory creates the sink that delivers verification codes.
	// Default: newNotifier
	NotifierFactory func(cfg *config.Config, logger *slog.Logger) (auth.Notifier, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, checks map[string]observability.ReadinessCheck) ObservabilityServer

	// HTTPServerFactory creates the public API server.
	// Default: web.NewServer
	HTTPServerFactory func(addr string, handler http.Handler) HTTPServer
}

// Pool wraps the methods used from pgxpool.Pool.
type Pool interface {
	postgres.Querier
	Ping(ctx context.Context) error
	Close()
}

// AutoMigrator wraps the methods used from store.Migrator at startup.
type AutoMigrator interface {
	Up() error
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// HTTPServer wraps the methods used from web.Server.
type HTTPServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// newNotifier emails codes when SMTP is configured. Logging codes instead is
// only allowed in the development environment.
func newNotifier(cfg *config.Config, logger *slog.Logger) (auth.Notifier, error) {
	if !cfg.SMTPEnabled() {
		if cfg.Environment != config.EnvironmentDevelopment {
			return nil, oops.Code("CONFIG_INVALID").
				With("field", "smtp.host").
				With("environment", cfg.Environment).
				Errorf("smtp.host is required outside the %s environment", config.EnvironmentDevelopment)
		}
		logger.Warn("smtp host not configured, verification codes will be logged")
		return notify.NewLogNotifier(logger), nil
	}
	mailer, err := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		TLS:      cfg.SMTP.TLS,
		Timeout:  cfg.SMTP.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return mailer, nil
}
