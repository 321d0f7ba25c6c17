// Package main runs the background job worker (payment receipt delivery).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/retreat-admin/backend/config"
	"github.com/retreat-admin/backend/internal/emaillogs"
	"github.com/retreat-admin/backend/internal/notify"
	"github.com/retreat-admin/backend/internal/roster"
	"github.com/retreat-admin/backend/internal/worker"
	"github.com/retreat-admin/backend/pkg/database"
	"github.com/retreat-admin/backend/pkg/queue"
	"github.com/retreat-admin/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		ConnectTries: 5,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	dispatcher, err := notify.NewDispatcher(ctx, cfg.Google, cfg.Email, logger)
	if err != nil {
		logger.Fatal("receipt transport", zap.Error(err))
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewReceiptProcessor(roster.NewRepository(pool), emaillogs.NewRepository(pool), dispatcher, jobQueue, logger)

	if n, err := jobQueue.DeadLetters(ctx); err == nil && n > 0 {
		logger.Warn("dead-lettered jobs waiting", zap.Int64("count", n), zap.String("queue", queue.QueueDLQ))
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()
	logger.Info("worker started", zap.String("queue", queue.QueueEmails))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(queue.PollTimeout + time.Second):
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
