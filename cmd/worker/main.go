package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/gymtrack/gymtrack/internal/account"
	"github.com/gymtrack/gymtrack/internal/analytics"
	"github.com/gymtrack/gymtrack/internal/app"
	"github.com/gymtrack/gymtrack/internal/platform/cache"
	"github.com/gymtrack/gymtrack/internal/store"
	"github.com/gymtrack/gymtrack/internal/workouts"
	"github.com/gymtrack/gymtrack/jobs"
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

	st := store.New(redisClient, logger)

	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	workoutService := workouts.NewService(st, analyticsCache, logger)
	analyticsService := analytics.NewService(workoutService, analyticsCache)

	integrityJob := jobs.NewAccountIntegrityJob(st, cfg.AdminEmail, account.DefaultDigest(cfg.AdminPassword), logger)
	warmupJob := jobs.NewAnalyticsWarmupJob(st, analyticsService, logger)

	integrityTask, err := jobs.NewAccountIntegrityTask(jobs.IntegrityPayload{Reason: "scheduled"})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAccountIntegrity, Handler: integrityJob.Handle},
			{Type: jobs.TaskAnalyticsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/5 * * * *", Task: integrityTask},
			{Spec: "*/10 * * * *", Task: jobs.NewAnalyticsWarmupTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shutdown complete")
}
