package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/medalchat/internal/audit"
	"github.com/nikhilbhutani/medalchat/internal/config"
	"github.com/nikhilbhutani/medalchat/internal/database"
	"github.com/nikhilbhutani/medalchat/internal/observability"
	"github.com/nikhilbhutani/medalchat/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Log.Level, os.Stdout).With("process", "worker")
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := database.SQLFromPool(pool)
	defer db.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				queue.QueueDefault: 3,
				queue.QueueLow:     1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	slog.Info("starting worker", "concurrency", cfg.Queue.Concurrency)
	if err := srv.Run(queue.NewServeMux(audit.NewService(db))); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
