// Copyright 2026 The Timesheet Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command server runs the timesheet API.
//
// Usage:
//
//	server [serve|migrate|bootstrap]
//
// serve is the default. migrate applies pending schema migrations and exits.
// bootstrap provisions the platform super administrator named by
// BOOTSTRAP_SUPER_ADMIN_EMAIL and exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anand1357/timesheet-multitenant-backend/internal/app"
	"github.com/anand1357/timesheet-multitenant-backend/internal/config"
	"github.com/anand1357/timesheet-multitenant-backend/internal/identity"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/metrics"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/tracing"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store/postgres"
	transportHTTP "github.com/anand1357/timesheet-multitenant-backend/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		ExportOTel:  cfg.Observability.LogExport,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		err = serve(ctx, cfg)
	case "migrate":
		err = runMigrate(ctx, cfg)
	case "bootstrap":
		err = runBootstrap(ctx, cfg)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		slog.Error(cmd+" failed", logger.Error(err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting timesheet api",
		logger.Component("server"),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("environment", cfg.Observability.Environment),
	)

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.TracingEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Environment:    cfg.Observability.Environment,
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       cfg.Observability.OTLPInsecure,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	} else {
		defer tracer.Shutdown(context.Background())
	}

	opts := options(cfg)
	meter := metrics.New(metrics.Config{Enabled: cfg.Observability.MetricsEnabled}, cfg.Observability.ServiceName)
	if wf, err := meter.NewWorkflow(); err != nil {
		slog.Error("failed to initialize workflow metrics", logger.Error(err))
	} else {
		opts.Recorder = wf
	}

	backends, closeDB, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	a, err := app.New(backends, opts)
	if err != nil {
		return err
	}
	if cfg.Bootstrap.Email != "" {
		if _, err := a.Bootstrap(ctx, bootstrapConfig(cfg)); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}

	trusted, err := transportHTTP.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	limiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	authLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.AuthRequestsPerSecond, cfg.RateLimit.AuthBurst)
	go limiter.Run(ctx)
	go authLimiter.Run(ctx)

	routerCfg := transportHTTP.RouterConfig{
		RateLimiter:     limiter,
		AuthRateLimiter: authLimiter,
		RequestTimeout:  cfg.Server.RequestTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		TrustedProxies:  trusted,
	}
	if cfg.Observability.MetricsEnabled {
		routerCfg.Metrics = metrics.NewHTTP()
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      transportHTTP.NewRouter(transportHTTP.NewHandler(a.Services()), routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", logger.Component("server"), logger.Operation("listen"), slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openBackends selects the storage driver. The returned func releases it.
func openBackends(ctx context.Context, cfg *config.Config) (app.Backends, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		slog.Warn("using in-memory storage; data is lost on restart")
		return app.MemoryBackends(), func() {}, nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return app.Backends{}, nil, err
	}
	if cfg.Database.AutoMigrate {
		applied, err := db.Migrate(ctx)
		if err != nil {
			db.Close()
			return app.Backends{}, nil, err
		}
		slog.Info("migrations applied", slog.Any("versions", applied))
	}
	return app.PostgresBackends(db), db.Close, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.New(ctx, postgres.Config{
		URL:          cfg.Database.URL,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("connected to database")
	return db, nil
}

func options(cfg *config.Config) app.Options {
	return app.Options{
		Tokens: identity.TokenConfig{
			Secret:     cfg.Auth.JWTSecret,
			Issuer:     cfg.Auth.Issuer,
			AccessTTL:  cfg.Auth.AccessTTL,
			RefreshTTL: cfg.Auth.RefreshTTL,
		},
	}
}

func bootstrapConfig(cfg *config.Config) identity.BootstrapConfig {
	return identity.BootstrapConfig{
		Email:     cfg.Bootstrap.Email,
		Password:  cfg.Bootstrap.Password,
		FirstName: cfg.Bootstrap.FirstName,
		LastName:  cfg.Bootstrap.LastName,
	}
}

func runBootstrap(ctx context.Context, cfg *config.Config) error {
	if cfg.Bootstrap.Email == "" {
		return errors.New("BOOTSTRAP_SUPER_ADMIN_EMAIL is not set")
	}
	if cfg.Storage.Driver == config.DriverMemory {
		return errors.New("bootstrap needs STORAGE_DRIVER=postgres")
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := app.New(app.PostgresBackends(db), options(cfg))
	if err != nil {
		return err
	}
	u, err := a.Bootstrap(ctx, bootstrapConfig(cfg))
	if err != nil {
		return err
	}
	slog.Info("super administrator ready", logger.UserID(u.ID.String()), logger.TenantID(u.TenantID.String()))
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		slog.Info("schema is up to date")
		return nil
	}
	slog.Info("migrations applied", slog.Any("versions", applied))
	return nil
}
