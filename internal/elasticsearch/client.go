package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"github.com/Adarsh108-tech/glacier-server/internal/logger"
	"github.com/Adarsh108-tech/glacier-server/internal/models"
)

// maxListSize caps ListNews; refresh snapshots are far smaller.
const maxListSize = 1000

const indexMapping = `{
  "mappings": {
    "properties": {
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "url":         {"type": "keyword"},
      "imageUrl":    {"type": "keyword", "index": false},
      "publishedAt": {"type": "date"},
      "source": {
        "properties": {
          "id":   {"type": "keyword"},
          "name": {"type": "keyword"},
          "url":  {"type": "keyword"}
        }
      }
    }
  }
}`

// Client stores news snapshots in Elasticsearch. alias always points at the
// most recent fully written snapshot index.
type Client struct {
	es    *elasticsearch.Client
	alias string
	log   *slog.Logger
}

// New instantiates the Elasticsearch client.
func New(addr, alias string, log *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Client{es: es, alias: alias, log: log}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// ListNews returns the current snapshot ordered by publishedAt descending.
func (c *Client) ListNews(ctx context.Context) ([]models.NewsArticle, error) {
	body := map[string]any{
		"size":  maxListSize,
		"query": map[string]any{"match_all": map[string]any{}},
		"sort": []map[string]any{
			{"publishedAt": map[string]any{"order": "desc", "unmapped_type": "date"}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.alias),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return []models.NewsArticle{}, nil
	}
	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string             `json:"_id"`
				Source models.NewsArticle `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]models.NewsArticle, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		a := hit.Source
		a.ID = hit.ID
		items = append(items, a)
	}
	return items, nil
}

// ReplaceNews writes articles into a new index and moves the alias onto it in
// one _aliases call. Previous snapshot indices are deleted afterwards.
func (c *Client) ReplaceNews(ctx context.Context, articles []models.NewsArticle) error {
	index := snapshotIndex(c.alias, time.Now())

	if err := c.createIndex(ctx, index); err != nil {
		return err
	}

	if len(articles) > 0 {
		if err := c.bulkIndex(ctx, index, articles); err != nil {
			c.deleteIndices(index)
			return err
		}
	}

	previous, err := c.aliasIndices(ctx)
	if err != nil {
		c.deleteIndices(index)
		return err
	}

	actions, err := json.Marshal(aliasActions(c.alias, index, previous))
	if err != nil {
		c.deleteIndices(index)
		return fmt.Errorf("marshal alias actions: %w", err)
	}

	res, err := c.es.Indices.UpdateAliases(bytes.NewReader(actions), c.es.Indices.UpdateAliases.WithContext(ctx))
	if err != nil {
		c.deleteIndices(index)
		return fmt.Errorf("update aliases: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		c.deleteIndices(index)
		return fmt.Errorf("update aliases failed: %s", strings.TrimSpace(string(data)))
	}

	c.deleteIndices(previous...)
	c.log.Debug("news alias swapped", slog.String("index", index), slog.Int("count", len(articles)))
	return nil
}

func (c *Client) createIndex(ctx context.Context, index string) error {
	res, err := c.es.Indices.Create(
		index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("create index %s failed: %s", index, strings.TrimSpace(string(data)))
	}
	return nil
}

func (c *Client) bulkIndex(ctx context.Context, index string, articles []models.NewsArticle) error {
	body, err := bulkBody(articles)
	if err != nil {
		return err
	}

	res, err := c.es.Bulk(
		bytes.NewReader(body),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithIndex(index),
		c.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("bulk index failed: %s", strings.TrimSpace(string(data)))
	}

	return checkBulkResponse(res.Body, len(articles))
}

// checkBulkResponse fails unless every one of want actions was indexed.
func checkBulkResponse(body io.Reader, want int) error {
	var parsed struct {
		Errors bool              `json:"errors"`
		Items  []json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		return fmt.Errorf("bulk index reported item errors")
	}
	if len(parsed.Items) != want {
		return fmt.Errorf("bulk index stored %d of %d documents", len(parsed.Items), want)
	}
	return nil
}

// aliasIndices lists the indices alias currently points at.
func (c *Client) aliasIndices(ctx context.Context) ([]string, error) {
	res, err := c.es.Indices.GetAlias(
		c.es.Indices.GetAlias.WithContext(ctx),
		c.es.Indices.GetAlias.WithName(c.alias),
	)
	if err != nil {
		return nil, fmt.Errorf("get alias: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("get alias failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode alias response: %w", err)
	}
	out := make([]string, 0, len(parsed))
	for index := range parsed {
		out = append(out, index)
	}
	sort.Strings(out)
	return out, nil
}

// deleteIndices is best-effort; leftovers only cost disk.
func (c *Client) deleteIndices(indices ...string) {
	if len(indices) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := c.es.Indices.Delete(indices, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		c.log.Warn("delete snapshot indices", slog.Any("indices", indices), slog.Any("err", err))
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		c.log.Warn("delete snapshot indices failed", slog.Any("indices", indices), slog.String("status", res.Status()))
	}
}

// Health reports cluster health. A red cluster counts as unavailable.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("cluster health: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode cluster health: %w", err)
	}
	if parsed.Status == "red" {
		return fmt.Errorf("cluster health is red")
	}
	return nil
}

func snapshotIndex(alias string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", alias, now.UTC().Format("20060102150405"), uuid.NewString()[:8])
}

// bulkBody renders the NDJSON body for a bulk index request. Elasticsearch
// assigns document IDs, so every article becomes its own document.
func bulkBody(articles []models.NewsArticle) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, a := range articles {
		a.ID = ""
		if err := enc.Encode(map[string]any{"index": map[string]any{}}); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(a); err != nil {
			return nil, fmt.Errorf("encode bulk doc: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func aliasActions(alias, index string, previous []string) map[string]any {
	actions := make([]map[string]any, 0, len(previous)+1)
	for _, old := range previous {
		actions = append(actions, map[string]any{
			"remove": map[string]any{"index": old, "alias": alias},
		})
	}
	actions = append(actions, map[string]any{
		"add": map[string]any{"index": index, "alias": alias},
	})
	return map[string]any{"actions": actions}
}
