// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Aytsuu/Skwela/internal/auth"
	"github.com/Aytsuu/Skwela/internal/auth/postgres"
	authredis "github.com/Aytsuu/Skwela/internal/auth/redis"
	"github.com/Aytsuu/Skwela/internal/config"
	"github.com/Aytsuu/Skwela/internal/logging"
	"github.com/Aytsuu/Skwela/internal/notify"
	"github.com/Aytsuu/Skwela/internal/observability"
	"github.com/Aytsuu/Skwela/internal/store"
	"github.com/Aytsuu/Skwela/internal/web"
)

// shutdownTimeout bounds graceful shutdown of servers and the mail queue.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the authentication API together with the metrics and health
endpoints. Configuration comes from the config file, SKWELA_* environment
variables and the flags below.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServeWithDeps(ctx, cfg, cmd, nil)
		},
	}

	cmd.Flags().String("http-addr", "", "API listen address (overrides http.addr)")
	cmd.Flags().String("metrics-addr", "", "metrics/health listen address, empty disables (overrides metrics.addr)")
	cmd.Flags().String("log-format", "", "log format, json or text (overrides log.format)")
	cmd.Flags().String("log-level", "", "log level, debug, info, warn or error (overrides log.level)")
	cmd.Flags().Bool("auto-migrate", false, "apply pending migrations before serving")

	return cmd
}

func (d *ServeDeps) applyDefaults() {
	if d.PoolFactory == nil {
		d.PoolFactory = func(ctx context.Context, url string, cfg store.PoolConfig) (Pool, error) {
			return store.NewPool(ctx, url, cfg)
		}
	}
	if d.RedisFactory == nil {
		d.RedisFactory = func(cfg config.RedisConfig) goredis.UniversalClient {
			return goredis.NewClient(&goredis.Options{
				Addr:     cfg.Addr,
				Password: cfg.Password,
				DB:       cfg.DB,
			})
		}
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (AutoMigrator, error) {
			return store.NewMigrator(url)
		}
	}
	if d.NotifierFactory == nil {
		d.NotifierFactory = newNotifier
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, checks map[string]observability.ReadinessCheck) ObservabilityServer {
			return observability.NewServer(addr, checks)
		}
	}
	if d.HTTPServerFactory == nil {
		d.HTTPServerFactory = func(addr string, handler http.Handler) HTTPServer {
			return web.NewServer(addr, handler)
		}
	}
}

// runServeWithDeps starts the API with injectable dependencies and blocks
// until ctx is cancelled or a server fails. If deps is nil, default
// implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	deps.applyDefaults()

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("field", "log.level").Wrap(err)
	}
	logger := logging.SetDefault("skwela", version, cfg.Log.Format, level)

	sentryEnabled, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Environment, version)
	if err != nil {
		return err
	}
	if sentryEnabled {
		defer observability.FlushSentry()
		logger.Info("sentry error reporting enabled", "environment", cfg.Environment)
	}

	if cfg.Database.AutoMigrate {
		if err := autoMigrate(deps, cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	pool, err := deps.PoolFactory(ctx, cfg.Database.URL, store.PoolConfig{MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	rdb := deps.RedisFactory(cfg.Redis)
	defer func() {
		if closeErr := rdb.Close(); closeErr != nil {
			logger.Warn("error closing redis client", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, map[string]observability.ReadinessCheck{
			"postgres": pool.Ping,
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		})
		metrics = obsServer.Metrics()
	}

	sink, err := deps.NotifierFactory(cfg, logger)
	if err != nil {
		return oops.Code("NOTIFIER_INIT_FAILED").Wrap(err)
	}
	dispatcher := notify.NewDispatcher(sink,
		notify.WithWorkers(cfg.Notify.Workers),
		notify.WithQueueSize(cfg.Notify.QueueSize),
		notify.WithSendTimeout(cfg.Notify.SendTimeout),
		notify.WithDispatchLogger(logger),
		notify.WithRecorder(metrics),
	)

	router, err := buildRouter(cfg, pool, rdb, dispatcher, metrics, logger)
	if err != nil {
		closeDispatcher(dispatcher, logger)
		return err
	}

	httpServer := deps.HTTPServerFactory(cfg.HTTP.Addr, router)
	httpErrCh, err := httpServer.Start()
	if err != nil {
		closeDispatcher(dispatcher, logger)
		return oops.Code("HTTP_START_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, httpErrCh, "http")

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if stopErr := httpServer.Stop(shutdownCtx); stopErr != nil {
				logger.Warn("failed to stop http server during cleanup", "error", stopErr)
			}
			closeDispatcher(dispatcher, logger)
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
	}

	cmd.Println("Skwela API started")
	logger.Info("skwela ready",
		"http_addr", httpServer.Addr(),
		"environment", cfg.Environment,
		"smtp", cfg.SMTPEnabled(),
		"google", cfg.GoogleEnabled())

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	// Drain queued codes after the API stops accepting requests.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("error draining notification queue", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// buildRouter assembles the auth service and its HTTP handler.
func buildRouter(
	cfg *config.Config,
	pool Pool,
	rdb goredis.Cmdable,
	notifier auth.Notifier,
	metrics *observability.Metrics,
	logger *slog.Logger,
) (*gin.Engine, error) {
	signer, err := auth.NewTokenSigner(auth.TokenConfig{
		Secret:    cfg.JWT.Secret,
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		AccessTTL: cfg.JWT.AccessTTL,
	})
	if err != nil {
		return nil, err
	}

	service, err := auth.NewService(
		postgres.NewUserRepository(pool),
		auth.NewBcryptHasher(cfg.Bcrypt.Cost),
		signer,
		authredis.NewOTPCache(rdb),
		notifier,
		auth.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	opts := []web.HandlerOption{
		web.WithMetrics(metrics),
		web.WithHandlerLogger(logger),
	}
	if cfg.GoogleEnabled() {
		google, err := web.NewGoogleProvider(web.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, web.WithGoogle(google))
	}

	handler, err := web.NewHandler(web.Config{
		CookieDomain:  cfg.HTTP.CookieDomain,
		SecureCookies: cfg.HTTP.SecureCookies,
		FrontendURL:   cfg.HTTP.FrontendURL,
	}, service, signer, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.Environment != config.EnvironmentDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	return web.NewRouter(handler), nil
}

func autoMigrate(deps *ServeDeps, url string, logger *slog.Logger) error {
	migrator, err := deps.MigratorFactory(url)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	logger.Info("applying pending migrations")
	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

func closeDispatcher(d *notify.Dispatcher, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		logger.Warn("error draining notification queue", "error", err)
	}
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
