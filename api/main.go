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

	"github.com/joho/godotenv"

	"github.com/Adarsh108-tech/glacier-server/internal/blog"
	"github.com/Adarsh108-tech/glacier-server/internal/bootstrap"
	"github.com/Adarsh108-tech/glacier-server/internal/config"
	"github.com/Adarsh108-tech/glacier-server/internal/logger"
	"github.com/Adarsh108-tech/glacier-server/internal/refresh"
	"github.com/Adarsh108-tech/glacier-server/internal/storage"
)

func main() {
	log := logger.New("api")
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("load .env", slog.Any("err", err))
	}

	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	news, err := bootstrap.ConnectNews(ctx, cfg.Common, log)
	if err != nil {
		log.Error("init news backend", slog.Any("err", err))
		os.Exit(1)
	}
	defer news.Close(context.Background())

	media, err := storage.NewSupabase(storage.Config{
		SupabaseURL:    cfg.Storage.SupabaseURL,
		SupabaseKey:    cfg.Storage.SupabaseKey,
		ImageBucket:    cfg.Storage.ImageBucket,
		VideoBucket:    cfg.Storage.VideoBucket,
		Folder:         cfg.Storage.Folder,
		AllowedFormats: cfg.Storage.AllowedFormats,
	})
	if err != nil {
		log.Error("init storage", slog.Any("err", err))
		os.Exit(1)
	}

	pingers := make(map[string]pinger, len(news.Pingers))
	for name, p := range news.Pingers {
		pingers[name] = p
	}

	srv := &server{
		log:     log,
		cfg:     cfg,
		news:    news.Store,
		refresh: news.Task,
		blogs:   blog.NewService(news.Mongo, media, log),
		health:  pingers,
	}

	if cfg.RefreshOnAPI {
		scheduler := refresh.NewScheduler(news.Task, cfg.News.Interval, cfg.News.Timeout, log)
		go scheduler.Start(ctx)
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
