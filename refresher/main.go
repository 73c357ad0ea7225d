package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Adarsh108-tech/glacier-server/internal/bootstrap"
	"github.com/Adarsh108-tech/glacier-server/internal/config"
	"github.com/Adarsh108-tech/glacier-server/internal/logger"
	"github.com/Adarsh108-tech/glacier-server/internal/refresh"
)

func main() {
	log := logger.New("refresher")
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("load .env", slog.Any("err", err))
	}

	cfg, err := config.LoadRefresher()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	news, err := connect(ctx, log, cfg)
	if err != nil {
		log.Error("failed to connect news backend", slog.Any("err", err))
		os.Exit(1)
	}
	defer news.Close(context.Background())

	if cfg.Once {
		code := runOnce(ctx, log, news.Task, cfg.News.Timeout)
		news.Close(context.Background())
		os.Exit(code)
	}

	refresh.NewScheduler(news.Task, cfg.News.Interval, cfg.News.Timeout, log).Start(ctx)
}

// connect retries the backend connection with exponential backoff.
func connect(ctx context.Context, log *slog.Logger, cfg *config.Refresher) (*bootstrap.News, error) {
	const maxRetries = 10
	retryDelay := 2 * time.Second

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		news, err := bootstrap.ConnectNews(ctx, cfg.Common, log)
		if err == nil {
			log.Info("connected to news backend", slog.String("store", cfg.NewsStore))
			return news, nil
		}
		lastErr = err
		log.Warn("news backend not ready, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", maxRetries),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}
	return nil, lastErr
}

func runOnce(ctx context.Context, log *slog.Logger, task interface {
	Run(context.Context) (refresh.Result, error)
}, timeout time.Duration) int {
	subCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := task.Run(subCtx)
	if err != nil {
		log.Error("refresh run failed", slog.Any("err", err))
		return 1
	}
	log.Info("refresh run completed",
		slog.Int("fetched", res.Fetched),
		slog.Int("stored", res.Stored),
	)
	return 0
}
