package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/veloura-crm/veloura/internal/app"
	"github.com/veloura-crm/veloura/internal/customers"
	"github.com/veloura-crm/veloura/internal/giftcards"
	"github.com/veloura-crm/veloura/internal/invoices"
	"github.com/veloura-crm/veloura/internal/loyalty"
	"github.com/veloura-crm/veloura/internal/platform/cache"
	"github.com/veloura-crm/veloura/internal/platform/db"
	"github.com/veloura-crm/veloura/internal/pos"
	"github.com/veloura-crm/veloura/internal/promotions"
	"github.com/veloura-crm/veloura/internal/reports"
	"github.com/veloura-crm/veloura/internal/shared"
	"github.com/veloura-crm/veloura/internal/staff"
	"github.com/veloura-crm/veloura/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	customerService := customers.NewService(customers.NewRepository(pool))
	staffService := staff.NewService(staff.NewRepository(pool))
	promoService := promotions.NewService(promotions.NewRepository(pool))
	giftCardService := giftcards.NewService(giftcards.NewRepository(pool), auditLogger)

	loyaltyCache := loyalty.NewSettingsCache(redisClient, cfg.SettingsCacheTTL)
	loyaltyService := loyalty.NewService(loyalty.NewRepository(pool), loyaltyCache, auditLogger, cfg.DefaultCurrency, logger)

	invoiceService := invoices.NewService(invoices.ServiceConfig{
		Repo:        invoices.NewRepository(pool),
		Promos:      promoService,
		GiftCards:   giftCardService,
		Loyalty:     loyaltyService,
		Idempotency: idempotency,
		Audit:       auditLogger,
		Receipts:    jobClient,
		Currency:    cfg.DefaultCurrency,
		TaxRate:     decimal.NewFromFloat(cfg.DefaultTaxRate),
		DueDays:     cfg.InvoiceDueDays,
		Logger:      logger,
	})
	posService := pos.NewService(invoiceService, staffService, logger)
	reportsService := reports.NewService(reports.NewStore(pool, cfg.DefaultCurrency))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		CustomerHandler: customers.NewHandler(logger, customerService),
		StaffHandler:    staff.NewHandler(logger, staffService),
		InvoiceHandler:  invoices.NewHandler(logger, invoiceService),
		GiftCardHandler: giftcards.NewHandler(logger, giftCardService),
		PromoHandler:    promotions.NewHandler(logger, promoService),
		LoyaltyHandler:  loyalty.NewHandler(logger, loyaltyService),
		POSHandler:      pos.NewHandler(logger, posService),
		ReportsHandler:  reports.NewHandler(logger, reportsService),
		JobHandler:      jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
