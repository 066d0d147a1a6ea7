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

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/app"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/auth"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/customers"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/observability"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/cache"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/db"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/repairs"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/reports"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/sales"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/settings"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/stock"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/vehicles"
	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/whatsapp"
	"github.com/baratexlondres-code/two-wheels-motorcycles/jobs"
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	gate := auth.NewGate(redisClient, cfg.GatePasswordHash, cfg.GateTokenTTL)
	authHandler := auth.NewHandler(logger, gate)

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo)
	settingsHandler := settings.NewHandler(logger, settingsService)

	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService)

	vehiclesRepo := vehicles.NewRepository(pool)
	vehiclesService := vehicles.NewService(vehiclesRepo)
	vehiclesHandler := vehicles.NewHandler(logger, vehiclesService)

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo)
	stockHandler := stock.NewHandler(logger, stockService)

	repairsRepo := repairs.NewRepository(pool)
	repairsService := repairs.NewService(repairsRepo, settingsService)
	repairsHandler := repairs.NewHandler(logger, repairsService)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo)
	salesHandler := sales.NewHandler(logger, salesService)

	metrics := observability.NewMetrics()

	sender := whatsapp.NewCloudSender(cfg.WhatsAppAPIBaseURL, cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)
	whatsappRepo := whatsapp.NewRepository(pool)
	whatsappEngine := whatsapp.NewEngine(logger, whatsappRepo, settingsService, sender)
	whatsappEngine.SetMetrics(metrics)
	whatsappService := whatsapp.NewService(whatsappRepo, whatsappEngine)
	whatsappHandler := whatsapp.NewHandler(logger, whatsappService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(logger, reportsRepo, redisClient, cfg.ReportCacheTTL)
	reportsHandler := reports.NewHandler(logger, reportsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		CustomersHandler: customersHandler,
		VehiclesHandler:  vehiclesHandler,
		RepairsHandler:   repairsHandler,
		StockHandler:     stockHandler,
		SalesHandler:     salesHandler,
		SettingsHandler:  settingsHandler,
		WhatsAppHandler:  whatsappHandler,
		ReportsHandler:   reportsHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
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
