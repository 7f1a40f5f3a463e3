package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/lumbung-wms/lumbung-wms/internal/app"
	"github.com/lumbung-wms/lumbung-wms/internal/platform/cache"
	"github.com/lumbung-wms/lumbung-wms/internal/platform/db"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
	"github.com/lumbung-wms/lumbung-wms/internal/storagecost"
	"github.com/lumbung-wms/lumbung-wms/jobs"
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

	activity := shared.NewActivityLogger(pool)
	repo := storagecost.NewRepository(pool)
	engine := storagecost.NewEngine(repo, activity, logger)
	calculator := storagecost.NewDailyCalculator(engine, repo, redisClient, activity, logger, cfg.AlertThreshold())
	dailyJob := jobs.NewDailyStorageCalcJob(calculator, logger)

	dailyTask, err := jobs.NewDailyStorageCalcTask(jobs.DailyStorageCalcPayload{TriggeredBy: "cron"})
	if err != nil {
		logger.Error("build daily calc task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDailyStorageCalc, Handler: dailyJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.DailyCalcCron, Task: dailyTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
