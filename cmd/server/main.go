// Copyright 2026 The OpenTrusty Authors
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
	"time"

	"github.com/opentrusty/account-admin/internal/account"
	"github.com/opentrusty/account-admin/internal/audit"
	"github.com/opentrusty/account-admin/internal/backend"
	"github.com/opentrusty/account-admin/internal/config"
	"github.com/opentrusty/account-admin/internal/identity"
	"github.com/opentrusty/account-admin/internal/observability/logger"
	"github.com/opentrusty/account-admin/internal/observability/metrics"
	"github.com/opentrusty/account-admin/internal/observability/tracing"
	"github.com/opentrusty/account-admin/internal/profile"
	"github.com/opentrusty/account-admin/internal/store/postgres"
	transportHTTP "github.com/opentrusty/account-admin/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTel:        cfg.Observability.OTELEnabled,
	})

	// CLI commands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "bootstrap":
			if err := runBootstrap(cfg); err != nil {
				fmt.Printf("Bootstrap failed: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		case "migrate":
			if err := runMigrate(cfg); err != nil {
				fmt.Printf("Migration failed: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		default:
			fmt.Printf("Unknown command %q (expected bootstrap or migrate)\n", os.Args[1])
			os.Exit(2)
		}
	}

	slog.Info("starting account admin service")
	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
		tracer = tracing.Noop()
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceVersion: cfg.Observability.ServiceVersion,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}
	defer meter.Shutdown(ctx)
	var accountMetrics *metrics.Account
	if meter != nil {
		if accountMetrics, err = metrics.NewAccount(meter); err != nil {
			slog.Error("failed to create account metrics", logger.Error(err))
		}
	}

	// Initialize services
	accountService, cleanup, err := newAccountService(ctx, cfg, tracer, accountMetrics)
	if err != nil {
		slog.Error("failed to initialize account service", logger.Error(err))
		os.Exit(1)
	}
	defer cleanup()

	// Run bootstrap (env driven, no-op when unset)
	if _, err := account.NewBootstrapService(accountService, bootstrapConfig(cfg)).Bootstrap(ctx); err != nil {
		slog.Error("bootstrap failed", logger.Error(err))
	}

	// Rate limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(accountService, transportHTTP.Options{
		ServiceName:     cfg.Observability.ServiceName,
		ErrorStatusMode: transportHTTP.StatusMode(cfg.HTTP.ErrorStatusMode),
		AllowedOrigin:   cfg.HTTP.CORSAllowedOrigin,
		RequestTimeout:  cfg.HTTP.RequestTimeout,
	})

	// Create HTTP server
	addr := cfg.Server.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      transportHTTP.NewRouter(handler, rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

// newAccountService wires the identity provider and the configured profile store.
// The returned cleanup releases the database pool when one was opened.
func newAccountService(ctx context.Context, cfg *config.Config, tracer *tracing.Tracer, accountMetrics *metrics.Account) (*account.Service, func(), error) {
	client, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.URL,
		ServiceKey: cfg.Backend.ServiceRoleKey,
		Timeout:    cfg.Backend.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	identities := backend.NewAuthAdmin(client)

	cleanup := func() {}
	var profiles profile.Repository
	switch cfg.Backend.ProfileStore {
	case config.ProfileStorePostgres:
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		cleanup = db.Close
		profiles = postgres.NewProfileRepository(db)
		slog.Info("using postgres profile store")
	default:
		profiles = backend.NewProfileStore(client)
		slog.Info("using REST profile store")
	}

	svc := account.NewService(
		identity.NewVerifier(identities),
		identities,
		profiles,
		audit.NewSlogLogger(slog.Default()),
		tracer,
		accountMetrics,
	)
	svc.SetRollbackTimeout(cfg.Backend.RollbackTimeout)

	return svc, cleanup, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	return postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
}

func bootstrapConfig(cfg *config.Config) account.BootstrapConfig {
	return account.BootstrapConfig{
		Email:       cfg.Bootstrap.Email,
		Password:    cfg.Bootstrap.Password,
		FullName:    cfg.Bootstrap.FullName,
		PhoneNumber: cfg.Bootstrap.PhoneNumber,
	}
}

func runBootstrap(cfg *config.Config) error {
	ctx := context.Background()
	if cfg.Bootstrap.Email == "" {
		return errors.New("ACCOUNT_BOOTSTRAP_SUPER_ADMIN_EMAIL is not set")
	}

	svc, cleanup, err := newAccountService(ctx, cfg, tracing.Noop(), nil)
	if err != nil {
		return err
	}
	defer cleanup()

	created, err := account.NewBootstrapService(svc, bootstrapConfig(cfg)).Bootstrap(ctx)
	if err != nil {
		return err
	}
	if created {
		fmt.Println("Super admin created.")
	} else {
		fmt.Println("A super admin already exists, nothing to do.")
	}
	return nil
}

func runMigrate(cfg *config.Config) error {
	if cfg.Backend.ProfileStore != config.ProfileStorePostgres {
		return fmt.Errorf("migrate requires PROFILE_STORE=%s", config.ProfileStorePostgres)
	}

	ctx := context.Background()
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying profiles schema...")
	if err := db.Migrate(ctx, postgres.ProfilesSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
