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

	"github.com/hibiken/asynq"

	"github.com/lumbung-wms/lumbung-wms/internal/allocator"
	"github.com/lumbung-wms/lumbung-wms/internal/app"
	"github.com/lumbung-wms/lumbung-wms/internal/catalog"
	"github.com/lumbung-wms/lumbung-wms/internal/customs"
	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
	"github.com/lumbung-wms/lumbung-wms/internal/platform/db"
	"github.com/lumbung-wms/lumbung-wms/internal/registry"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
	"github.com/lumbung-wms/lumbung-wms/internal/storagecost"
	"github.com/lumbung-wms/lumbung-wms/jobs"
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

	activity := shared.NewActivityLogger(pool)

	registryService := registry.NewService(registry.NewRepository(pool))
	catalogService := catalog.NewService(catalog.NewRepository(pool))

	costEngine := storagecost.NewEngine(storagecost.NewRepository(pool), activity, logger)
	ledgerService := ledger.NewService(ledger.NewRepository(pool), costEngine, catalogService, activity, logger)
	allocatorService := allocator.NewService(allocator.NewRepository(pool), activity, logger)

	ceisaClient, err := customs.NewClient(cfg.CeisaEndpoint, cfg.CeisaToken, cfg.CeisaTimeout)
	if err != nil {
		logger.Error("init ceisa client", slog.Any("error", err))
		os.Exit(1)
	}
	customsService := customs.NewService(customs.NewRepository(pool), ceisaClient, ledgerService, catalogService, activity, logger)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RegistryHandler:    registry.NewHandler(logger, registryService),
		CatalogHandler:     catalog.NewHandler(logger, catalogService),
		LedgerHandler:      ledger.NewHandler(logger, ledgerService),
		StorageCostHandler: storagecost.NewHandler(logger, costEngine, storagecost.NewRepository(pool), jobsClient),
		AllocatorHandler:   allocator.NewHandler(logger, allocatorService),
		CustomsHandler:     customs.NewHandler(logger, customsService),
		JobHandler:         jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
