package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"streamify/api/internal/cache"
	"streamify/api/internal/chat"
	"streamify/api/internal/config"
	"streamify/api/internal/database"
	"streamify/api/internal/handlers"
	"streamify/api/internal/jobs"
	"streamify/api/internal/log"
	"streamify/api/internal/repository"
	"streamify/api/internal/server"
	syncpkg "streamify/api/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	chatClient := chat.NewClient(cfg.Chat)
	outbox := syncpkg.NewOutbox(redisClient, cfg.Sync.Stream, logger)

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, chatClient, outbox, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	userRepo := repository.NewUserRepository(dbPool)
	worker := syncpkg.NewWorker(redisClient, cfg.Sync, chatClient, userRepo, logger)

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error().Err(err).Msg("identity sync worker stopped")
		}
	}()

	scheduler := jobs.NewScheduler(outbox, cfg.Sync.ReconcileSpec, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, stopWorker, workerDone, dbPool, redisClient)
}

func waitForShutdown(
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	stopWorker context.CancelFunc,
	workerDone <-chan struct{},
	db *pgxpool.Pool,
	redisClient *redis.Client,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	stopWorker()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("identity sync worker stop timed out")
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
