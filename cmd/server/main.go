package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/karwehn/lapidary/internal"
	"github.com/karwehn/lapidary/internal/audit"
	"github.com/karwehn/lapidary/internal/domain"
	"github.com/karwehn/lapidary/internal/gateway"
	"github.com/karwehn/lapidary/internal/handler"
	"github.com/karwehn/lapidary/internal/repository"
	"github.com/karwehn/lapidary/internal/service"
	"github.com/karwehn/lapidary/internal/telemetry"
	"github.com/labstack/echo/v4"
)

func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics("lapidary")

	// database/sql handle for migrations only
	logger.Info().Msg("connecting to database")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info().Msg("running database migrations")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := repository.NewPostgres(pool)

	var auditor domain.Auditor
	if cfg.Audit.NatsURL != "" {
		natsAuditor, closeAuditor, err := audit.NewNatsAuditor(cfg.Audit.NatsURL, cfg.Audit.Subject, logger)
		if err != nil {
			return fmt.Errorf("failed to connect audit publisher: %w", err)
		}
		defer closeAuditor()
		auditor = natsAuditor
		logger.Info().Str("subject", cfg.Audit.Subject).Msg("audit events publishing to nats")
	} else {
		auditor = audit.NewLogAuditor(logger)
		logger.Info().Msg("no NATS_URL configured, audit events go to the log")
	}

	invoiceService := service.NewInvoiceService(store, auditor, logger)
	ledgerService := service.NewLedgerService(store, auditor, logger)
	approvalService := service.NewApprovalService(store, auditor, logger)
	reconcileService := service.NewReconcileService(store, ledgerService, auditor, logger)

	if cfg.Gateway.WebhookSecret == "" {
		logger.Warn().Msg("WEBHOOK_SECRET is not set, gateway webhooks will be rejected")
	}

	e := echo.New()
	handler.Register(e, handler.Services{
		Invoices:    invoiceService,
		Ledger:      ledgerService,
		Approvals:   approvalService,
		Reconciler:  reconcileService,
		Verifier:    gateway.NewHMACVerifier(cfg.Gateway.WebhookSecret),
		HealthCheck: pool.Ping,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
