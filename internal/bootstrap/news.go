// Package bootstrap builds the process-wide clients shared by the api and
// refresher binaries from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adarsh108-tech/glacier-server/internal/config"
	"github.com/Adarsh108-tech/glacier-server/internal/elasticsearch"
	"github.com/Adarsh108-tech/glacier-server/internal/events"
	"github.com/Adarsh108-tech/glacier-server/internal/models"
	"github.com/Adarsh108-tech/glacier-server/internal/mongo"
	"github.com/Adarsh108-tech/glacier-server/internal/newsapi"
	"github.com/Adarsh108-tech/glacier-server/internal/refresh"
)

// NewsStore is what the HTTP layer and the refresh task need from a news backend.
type NewsStore interface {
	ListNews(ctx context.Context) ([]models.NewsArticle, error)
	ReplaceNews(ctx context.Context, articles []models.NewsArticle) error
}

// Pinger reports backend reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain health check to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// News holds the connected clients. Close releases all of them.
type News struct {
	Mongo   *mongo.Store
	Store   NewsStore
	Task    *refresh.Task
	Pingers map[string]Pinger

	publisher *events.Publisher
}

// ConnectNews dials MongoDB (and Elasticsearch when selected), builds the
// upstream client and the refresh task.
func ConnectNews(ctx context.Context, cfg config.Common, log *slog.Logger) (*News, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	mg, err := mongo.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database, log)
	if err != nil {
		return nil, fmt.Errorf("init mongo: %w", err)
	}

	n := &News{Mongo: mg, Store: mg, Pingers: map[string]Pinger{"mongo": mg}}

	if cfg.NewsStore == config.StoreElasticsearch {
		es, err := elasticsearch.New(cfg.Elasticsearch.Addr, cfg.Elasticsearch.Index, log)
		if err != nil {
			n.Close(context.Background())
			return nil, fmt.Errorf("init elasticsearch: %w", err)
		}
		if err := es.Ping(connectCtx); err != nil {
			n.Close(context.Background())
			return nil, err
		}
		n.Store = es
		n.Pingers["elasticsearch"] = PingFunc(es.Health)
	}

	src, err := newsapi.New(newsapi.Config{
		Provider:   cfg.News.Provider,
		BaseURL:    cfg.News.BaseURL,
		APIKey:     cfg.News.APIKey,
		Language:   cfg.News.Language,
		MaxResults: cfg.News.MaxResults,
	}, &http.Client{Timeout: cfg.News.Timeout})
	if err != nil {
		n.Close(context.Background())
		return nil, fmt.Errorf("init news api: %w", err)
	}

	opts := refresh.Options{Provider: cfg.News.Provider, Logger: log}
	if len(cfg.Kafka.Brokers) > 0 {
		n.publisher = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		opts.Notifier = n.publisher
		log.Info("refresh events enabled", slog.String("topic", cfg.Kafka.Topic))
	}

	n.Task = refresh.NewTask(src, n.Store, opts)
	return n, nil
}

// Close releases every client.
func (n *News) Close(ctx context.Context) {
	if n.publisher != nil {
		_ = n.publisher.Close()
	}
	if n.Mongo != nil {
		_ = n.Mongo.Close(ctx)
	}
}
