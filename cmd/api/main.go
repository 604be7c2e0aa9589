// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

// Command api is the entry point for the Corvid HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Connect to object storage (S3-compatible).
//  6. Run database migrations (idempotent).
//  7. Bootstrap the default admin account if configured.
//  8. Wire HTTP handlers.
//  9. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corvidlabs/corvid/internal/api"
	"github.com/corvidlabs/corvid/internal/attachment"
	"github.com/corvidlabs/corvid/internal/customer"
	"github.com/corvidlabs/corvid/internal/identity"
	"github.com/corvidlabs/corvid/internal/platform/config"
	"github.com/corvidlabs/corvid/internal/platform/constants"
	"github.com/corvidlabs/corvid/internal/platform/migration"
	pgstore "github.com/corvidlabs/corvid/internal/platform/postgres"
	redisstore "github.com/corvidlabs/corvid/internal/platform/redis"
	"github.com/corvidlabs/corvid/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Corvid] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Object Storage ─────────────────────────────────────────────────
	blobs, err := attachment.NewBlobStore(startupCtx, attachment.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
	})
	must(log, err, "connect to object storage")

	// ── 6. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 7. Token Service & Hashing ────────────────────────────────────────
	tokenService, err := sec.NewTokenService(cfg.TokenSecret, cfg.TokenKeyID, constants.AuthIssuer, cfg.TokenTTL)
	must(log, err, "initialize token service")

	hasher := sec.NewHasher(cfg.PasswordMaxBytes)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userStore := identity.NewUserStore(pool)
	identityService := identity.NewService(userStore, hasher, tokenService, log)
	identityHandler := identity.NewHandler(identityService)

	must(log, identityService.EnsureAdmin(startupCtx, cfg.AdminEmail, cfg.AdminPassword), "bootstrap admin account")

	metadataStore := attachment.NewMetadataStore(pool)
	handleStore := attachment.NewHandleStore(rdb)
	attachmentService := attachment.NewService(metadataStore, handleStore, blobs, attachment.Policy{
		AllowedContentTypes: cfg.AllowedContentTypes,
		MaxObjectBytes:      cfg.MaxObjectBytes,
		OwnerQuotaBytes:     cfg.OwnerQuotaBytes,
		HandleTTL:           cfg.UploadHandleTTL,
		DownloadURLExpiry:   cfg.DownloadURLExpiry,
	}, log)
	attachmentHandler := attachment.NewHandler(attachmentService)

	customerStore := customer.NewStore(pool)
	customerService := customer.NewService(customerStore, attachmentService, log)
	customerHandler := customer.NewHandler(customerService)

	// ── 9. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
		CheckStorage: func() error {
			_, err := blobs.PresignGet(context.Background(), "healthcheck", time.Minute)
			return err
		},
	}, log)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Identity:   identityHandler,
		Customer:   customerHandler,
		Attachment: attachmentHandler,
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, cfg, log, tokenService, identityService, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("stage", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
