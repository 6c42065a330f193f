// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/internal/auth/memory"
	"github.com/recyclehub/recyclehub/internal/auth/postgres"
	"github.com/recyclehub/recyclehub/internal/config"
	"github.com/recyclehub/recyclehub/internal/httpapi"
	"github.com/recyclehub/recyclehub/internal/logging"
	"github.com/recyclehub/recyclehub/internal/notify"
	"github.com/recyclehub/recyclehub/pkg/errutil"
)

const (
	serviceName     = "recyclehub"
	shutdownTimeout = 10 * time.Second
	readyTimeout    = 2 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth API server",
		Long: `Start the HTTP API serving signup, verification, login and
password reset, plus the metrics and health endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	cmd.Flags().String("http-addr", "", "API listen address")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", "", "log format (json or text)")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("store", "", "storage backend (postgres or memory)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	cmd.Flags().String("notifier", "", "code delivery (log or webhook)")

	return cmd
}

// backend is the persistence selected by configuration.
type backend struct {
	users auth.UserRepository
	codes auth.CodeRepository
	ready func() bool
	close func()
}

// runServeWithDeps runs the server until ctx is cancelled, a signal arrives
// or a listener fails. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	cfg, err := config.Load(loadOptions(cmd))
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.SetDefault(serviceName, version, cfg.Log.Format, level)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("starting server",
		"http_addr", cfg.HTTP.Addr,
		"store", cfg.Store.Driver,
		"notifier", cfg.Notify.Driver,
	)

	be, err := openBackend(ctx, cfg, deps)
	if err != nil {
		return err
	}
	defer be.close()

	notifier, err := newNotifier(cfg.Notify, logger)
	if err != nil {
		return err
	}

	var obsServer ObservabilityServer
	var serviceOpts []auth.ServiceOption
	routerOpts := httpapi.Options{
		Logger:           logger,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		MinClientVersion: cfg.Client.MinVersion,
	}
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, be.ready)
		serviceOpts = append(serviceOpts, auth.WithRecorder(obsServer.Metrics()))
		routerOpts.Metrics = obsServer.Metrics()
	}

	svc, err := newAuthService(cfg.Auth, be, notifier, logger, serviceOpts...)
	if err != nil {
		return err
	}

	if cfg.RateLimit.Rate > 0 {
		limiter := httpapi.NewRateLimiter(httpapi.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.Rate),
			Burst: cfg.RateLimit.Burst,
		}, logger)
		defer limiter.Stop()
		routerOpts.RateLimiter = limiter
	}

	router, err := httpapi.NewRouter(svc, routerOpts)
	if err != nil {
		return err
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
		close(errChan)
	}()

	if obsServer != nil {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			shutdownServer(server, logger)
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	cmd.Printf("RecycleHub API listening on %s\n", listener.Addr())
	logger.Info("server ready", "addr", listener.Addr().String())

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-errChan:
		if ok && err != nil {
			serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	}

	shutdownServer(server, logger)
	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return serveErr
}

func shutdownServer(server *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("error stopping API server", "error", err)
	}
}

func openBackend(ctx context.Context, cfg *config.Config, deps *ServeDeps) (*backend, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		slog.Warn("using in-memory store; accounts are lost on restart")
		return &backend{
			users: memory.NewUserRepository(),
			codes: memory.NewCodeRepository(),
			ready: func() bool { return true },
			close: func() {},
		}, nil
	}

	db, err := deps.DatabaseConnector(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to database")

	return &backend{
		users: postgres.NewUserRepository(db),
		codes: postgres.NewCodeRepository(db),
		ready: func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), readyTimeout)
			defer cancel()
			return db.Ping(pingCtx) == nil
		},
		close: db.Close,
	}, nil
}

func newNotifier(cfg config.NotifyConfig, logger *slog.Logger) (auth.Notifier, error) {
	if cfg.Driver == config.NotifyDriverWebhook {
		opts := []notify.WebhookOption{notify.WithMaxRetries(cfg.MaxRetries)}
		if cfg.BlockPrivateNetworks {
			opts = append(opts, notify.WithHTTPClient(notify.NewGuardedClient(notify.DefaultWebhookTimeout)))
		}
		return notify.NewWebhookNotifier(cfg.WebhookURL, opts...)
	}
	return notify.NewLogNotifier(logger), nil
}

func newAuthService(
	cfg config.AuthConfig,
	be *backend,
	notifier auth.Notifier,
	logger *slog.Logger,
	opts ...auth.ServiceOption,
) (*auth.Service, error) {
	codes, err := auth.NewCodeService(be.codes,
		auth.WithCodeTTL(cfg.CodeTTL),
		auth.WithMaxLiveCodes(cfg.MaxLiveCodes),
	)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret),
		auth.WithTokenTTL(cfg.TokenTTL),
		auth.WithTokenIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	opts = append([]auth.ServiceOption{
		auth.WithLogger(logger),
		auth.WithNotifyTimeout(cfg.NotifyTimeout),
	}, opts...)
	return auth.NewService(be.users, codes, auth.NewArgon2idHasher(), tokens, notifier, opts...)
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			errutil.LogError(logger, "server error, triggering shutdown", err, "server", serverName)
			cancel()
		}
	case <-ctx.Done():
	}
}
