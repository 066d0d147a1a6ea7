package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/app"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/cache"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/db"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/settings"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/whatsapp"
	"github.com/baratexlondres-code/two-wheels-motorcycles/jobs"
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	settingsService := settings.NewService(settings.NewRepository(pool))
	sender := whatsapp.NewCloudSender(cfg.WhatsAppAPIBaseURL, cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)
	whatsappRepo := whatsapp.NewRepository(pool)
	whatsappEngine := whatsapp.NewEngine(logger, whatsappRepo, settingsService, sender)
	whatsappService := whatsapp.NewService(whatsappRepo, whatsappEngine)

	whatsappJob := jobs.NewWhatsAppJob(whatsappService, logger)

	triggersTask, err := jobs.NewWhatsAppTriggersTask()
	if err != nil {
		logger.Error("build triggers task", slog.Any("error", err))
		os.Exit(1)
	}
	promotionTask, err := jobs.NewWhatsAppPromotionTask()
	if err != nil {
		logger.Error("build promotion task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskWhatsAppTriggers, Handler: whatsappJob.HandleTriggers},
			{Type: jobs.TaskWhatsAppPromotion, Handler: whatsappJob.HandlePromotion},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 9 * * *", Task: triggersTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 10 * * 1", Task: promotionTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
