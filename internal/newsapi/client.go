// Package newsapi queries the third-party news search API used to seed the
// news collection. Both the GNews and NewsAPI.org response shapes are
// understood.
package newsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Adarsh108-tech/glacier-server/internal/models"
	"github.com/Adarsh108-tech/glacier-server/internal/processing"
)

const (
	ProviderGNews   = "gnews"
	ProviderNewsAPI = "newsapi"
)

var defaultBaseURLs = map[string]string{
	ProviderGNews:   "https://gnews.io/api/v4/search",
	ProviderNewsAPI: "https://newsapi.org/v2/everything",
}

// Config describes one upstream endpoint.
type Config struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Language   string
	MaxResults int
	Phrases    []string
}

// Client issues search requests against the configured provider.
type Client struct {
	cfg  Config
	http *http.Client
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("news api returned status %d", e.Code)
	}
	return fmt.Sprintf("news api returned status %d: %s", e.Code, e.Body)
}

// Response is a decoded upstream payload. Raw keeps the body verbatim for
// callers that want to relay it.
type Response struct {
	Raw      json.RawMessage
	Articles []RawArticle
}

// RawArticle is the union of the article fields both providers emit.
type RawArticle struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Image       string          `json:"image"`
	URLToImage  string          `json:"urlToImage"`
	PublishedAt string          `json:"publishedAt"`
	Source      json.RawMessage `json:"source"`
}

// New builds a client. A nil httpClient uses a client with a 30s timeout.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderGNews
	}
	if cfg.BaseURL == "" {
		base, ok := defaultBaseURLs[cfg.Provider]
		if !ok {
			return nil, fmt.Errorf("unknown news provider %q", cfg.Provider)
		}
		cfg.BaseURL = base
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("news api key is required")
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if len(cfg.Phrases) == 0 {
		cfg.Phrases = processing.QueryPhrases
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// BuildQuery quotes each phrase and joins them with OR.
func BuildQuery(phrases []string) string {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		quoted = append(quoted, strconv.Quote(p))
	}
	return strings.Join(quoted, " OR ")
}

// SearchURL returns the fully encoded request URL, API key included.
func (c *Client) SearchURL() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse news api url: %w", err)
	}

	q := u.Query()
	q.Set("q", BuildQuery(c.cfg.Phrases))
	switch c.cfg.Provider {
	case ProviderNewsAPI:
		q.Set("language", c.cfg.Language)
		q.Set("pageSize", strconv.Itoa(c.cfg.MaxResults))
		q.Set("sortBy", "publishedAt")
		q.Set("apiKey", c.cfg.APIKey)
	default:
		q.Set("lang", c.cfg.Language)
		q.Set("max", strconv.Itoa(c.cfg.MaxResults))
		q.Set("sortby", "publishedAt")
		q.Set("apikey", c.cfg.APIKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch runs one search request.
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	target, err := c.SearchURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build news request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", redact(err, c.cfg.APIKey))
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read news response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed struct {
		Articles []RawArticle `json:"articles"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}

	return &Response{Raw: json.RawMessage(body), Articles: parsed.Articles}, nil
}

// Normalize maps a raw article onto the stored shape.
func (a RawArticle) Normalize() models.NewsArticle {
	image := strings.TrimSpace(a.Image)
	if image == "" {
		image = strings.TrimSpace(a.URLToImage)
	}
	return models.NewsArticle{
		Title:       processing.CleanText(a.Title),
		Description: processing.CleanText(a.Description),
		URL:         strings.TrimSpace(a.URL),
		ImageURL:    image,
		PublishedAt: processing.ParseTimestamp(a.PublishedAt),
		Source:      parseSource(a.Source),
	}
}

// parseSource accepts an object, a bare string, or nothing.
func parseSource(raw json.RawMessage) models.Source {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.Source{}
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return models.Source{Name: strings.TrimSpace(name)}
	}

	var obj struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
		URL  string  `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Source{}
	}
	src := models.Source{Name: strings.TrimSpace(obj.Name), URL: strings.TrimSpace(obj.URL)}
	if obj.ID != nil {
		src.ID = *obj.ID
	}
	return src
}

// redact keeps the API key out of error strings, since url.Error embeds the
// request URL.
func redact(err error, secret string) error {
	if secret == "" || !strings.Contains(err.Error(), secret) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), secret, "REDACTED"))
}
