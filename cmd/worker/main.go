package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/veloura-crm/veloura/internal/app"
	"github.com/veloura-crm/veloura/internal/giftcards"
	"github.com/veloura-crm/veloura/internal/invoices"
	"github.com/veloura-crm/veloura/internal/loyalty"
	"github.com/veloura-crm/veloura/internal/platform/cache"
	"github.com/veloura-crm/veloura/internal/platform/db"
	"github.com/veloura-crm/veloura/internal/promotions"
	"github.com/veloura-crm/veloura/internal/shared"
	"github.com/veloura-crm/veloura/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	promoService := promotions.NewService(promotions.NewRepository(pool))
	giftCardService := giftcards.NewService(giftcards.NewRepository(pool), auditLogger)
	loyaltyCache := loyalty.NewSettingsCache(redisClient, cfg.SettingsCacheTTL)
	loyaltyService := loyalty.NewService(loyalty.NewRepository(pool), loyaltyCache, auditLogger, cfg.DefaultCurrency, logger)

	invoiceService := invoices.NewService(invoices.ServiceConfig{
		Repo:      invoices.NewRepository(pool),
		Promos:    promoService,
		GiftCards: giftCardService,
		Loyalty:   loyaltyService,
		Audit:     auditLogger,
		Currency:  cfg.DefaultCurrency,
		TaxRate:   decimal.NewFromFloat(cfg.DefaultTaxRate),
		DueDays:   cfg.InvoiceDueDays,
		Logger:    logger,
	})

	overdueTask, err := jobs.NewOverdueScanTask()
	if err != nil {
		logger.Error("build overdue scan task", slog.Any("error", err))
		os.Exit(1)
	}
	expiryTask, err := jobs.NewGiftCardExpiryTask()
	if err != nil {
		logger.Error("build gift card expiry task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReceiptEmail, Handler: jobs.NewReceiptEmailHandler(invoiceService, logger)},
			{Type: jobs.TaskOverdueScan, Handler: jobs.NewOverdueScanHandler(invoiceService, logger)},
			{Type: jobs.TaskGiftCardExpiry, Handler: jobs.NewGiftCardExpiryHandler(giftCardService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: expiryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
