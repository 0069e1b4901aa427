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

	"golang.org/x/sync/errgroup"

	"github.com/gymtrack/gymtrack/internal/account"
	"github.com/gymtrack/gymtrack/internal/analytics"
	"github.com/gymtrack/gymtrack/internal/app"
	"github.com/gymtrack/gymtrack/internal/observability"
	"github.com/gymtrack/gymtrack/internal/platform/cache"
	"github.com/gymtrack/gymtrack/internal/store"
	"github.com/gymtrack/gymtrack/internal/workouts"
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

	manager := account.NewManager(st, logger, account.ManagerConfig{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	manager.Init(ctx)

	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	workoutService := workouts.NewService(st, analyticsCache, logger)
	analyticsService := analytics.NewService(workoutService, analyticsCache)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Config:           cfg,
		AccountHandler:   account.NewHandler(logger, manager),
		WorkoutsHandler:  workouts.NewHandler(logger, workoutService, manager),
		AnalyticsHandler: analytics.NewHandler(logger, analyticsService, manager),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// Feed foreign-context writes to the user set back into the manager.
	g.Go(func() error {
		for n := range st.Watch(gctx, store.UsersKey) {
			manager.ApplyExternalUsers(gctx, n.Value)
			metrics.ObserveReconcile()
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
