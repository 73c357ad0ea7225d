// Package refresh replaces the news collection with a fresh, filtered
// snapshot from the upstream search API.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adarsh108-tech/glacier-server/internal/events"
	"github.com/Adarsh108-tech/glacier-server/internal/logger"
	"github.com/Adarsh108-tech/glacier-server/internal/metrics"
	"github.com/Adarsh108-tech/glacier-server/internal/models"
	"github.com/Adarsh108-tech/glacier-server/internal/newsapi"
	"github.com/Adarsh108-tech/glacier-server/internal/processing"
)

type fetcher interface {
	Fetch(ctx context.Context) (*newsapi.Response, error)
}

// Store swaps the whole news collection for articles.
type Store interface {
	ReplaceNews(ctx context.Context, articles []models.NewsArticle) error
}

type notifier interface {
	PublishRefreshed(ctx context.Context, ev events.Refreshed) error
}

// Result summarizes one refresh cycle.
type Result struct {
	Raw     json.RawMessage `json:"-"`
	Fetched int             `json:"fetched"`
	Kept    int             `json:"kept"`
	Stored  int             `json:"stored"`
	RunAt   time.Time       `json:"runAt"`
}

// Options tunes a Task. Zero values pick the defaults.
type Options struct {
	Terms    []string
	Provider string
	Notifier notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Task runs refresh cycles.
type Task struct {
	src      fetcher
	store    Store
	terms    []string
	provider string
	notify   notifier
	log      *slog.Logger
	now      func() time.Time
}

// NewTask wires a task from its collaborators.
func NewTask(src fetcher, store Store, opts Options) *Task {
	t := &Task{
		src:      src,
		store:    store,
		terms:    opts.Terms,
		provider: opts.Provider,
		notify:   opts.Notifier,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if len(t.terms) == 0 {
		t.terms = processing.RelevanceTerms
	}
	if t.log == nil {
		t.log = logger.Discard()
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Run executes one refresh cycle. Upstream and store failures leave the
// stored collection as it was. A run that keeps no articles is not an error
// and does not touch the store.
func (t *Task) Run(ctx context.Context) (Result, error) {
	start := t.now()
	res := Result{RunAt: start.UTC()}

	resp, err := t.src.Fetch(ctx)
	if err != nil {
		metrics.RecordRefresh(metrics.StatusUpstream, time.Since(start).Seconds())
		t.log.Warn("news fetch failed, keeping stored articles", slog.Any("err", err))
		return res, fmt.Errorf("fetch news: %w", err)
	}
	res.Raw = resp.Raw
	res.Fetched = len(resp.Articles)

	articles := Filter(resp.Articles, t.terms)
	res.Kept = len(articles)
	if len(articles) == 0 {
		metrics.RecordRefresh(metrics.StatusEmpty, time.Since(start).Seconds())
		t.log.Info("no relevant articles, keeping stored articles",
			slog.Int("fetched", res.Fetched),
			slog.Time("run_at", res.RunAt),
		)
		return res, nil
	}

	if err := t.store.ReplaceNews(ctx, articles); err != nil {
		metrics.RecordRefresh(metrics.StatusStore, time.Since(start).Seconds())
		t.log.Error("replace news failed", slog.Any("err", err))
		return res, fmt.Errorf("replace news: %w", err)
	}
	res.Stored = len(articles)

	metrics.RecordRefresh(metrics.StatusOK, time.Since(start).Seconds())
	metrics.ArticlesStored.Set(float64(res.Stored))
	t.log.Info("news refreshed",
		slog.Int("fetched", res.Fetched),
		slog.Int("stored", res.Stored),
		slog.Time("run_at", res.RunAt),
	)

	if t.notify != nil {
		ev := events.Refreshed{Fetched: res.Fetched, Stored: res.Stored, RunAt: res.RunAt, Provider: t.provider}
		if err := t.notify.PublishRefreshed(ctx, ev); err != nil {
			t.log.Warn("publish refresh event", slog.Any("err", err))
		}
	}

	return res, nil
}

// Filter keeps relevant articles and maps them onto the stored shape.
func Filter(raw []newsapi.RawArticle, terms []string) []models.NewsArticle {
	out := make([]models.NewsArticle, 0, len(raw))
	for _, a := range raw {
		article := a.Normalize()
		if !processing.IsRelevant(article.Title, article.Description, terms) {
			continue
		}
		out = append(out, article)
	}
	return out
}
