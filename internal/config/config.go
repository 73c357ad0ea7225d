package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMongo         = "mongo"
	StoreElasticsearch = "elasticsearch"

	ProviderGNews   = "gnews"
	ProviderNewsAPI = "newsapi"
)

// Mongo holds document store connection parameters.
type Mongo struct {
	URI      string
	Database string
}

// Elasticsearch is only used when NEWS_STORE=elasticsearch.
type Elasticsearch struct {
	Addr  string
	Index string
}

// NewsSource configures the upstream search API and the refresh cadence.
type NewsSource struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Language   string
	MaxResults int
	Interval   time.Duration
	Timeout    time.Duration
}

// Kafka is optional; refresh events are only published when Brokers is set.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Common contains the sections shared by every binary.
type Common struct {
	Mongo         Mongo
	NewsStore     string
	Elasticsearch Elasticsearch
	News          NewsSource
	Kafka         Kafka
}

// Storage configures the Supabase object store used for blog media.
type Storage struct {
	SupabaseURL    string
	SupabaseKey    string
	ImageBucket    string
	VideoBucket    string
	Folder         string
	AllowedFormats []string
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Storage        Storage
	BindAddr       string
	AllowedOrigins []string
	MaxUploadBytes int64
	RefreshOnAPI   bool
}

// Refresher configures the standalone refresh binary.
type Refresher struct {
	Common
	Once bool
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common: *common,
		Storage: Storage{
			SupabaseURL:    getEnv("SUPABASE_URL", ""),
			SupabaseKey:    getEnv("SUPABASE_KEY", ""),
			ImageBucket:    getEnv("STORAGE_IMAGE_BUCKET", "media"),
			VideoBucket:    getEnv("STORAGE_VIDEO_BUCKET", "media"),
			Folder:         strings.Trim(getEnv("STORAGE_FOLDER", "blogs"), "/"),
			AllowedFormats: splitAndTrim(getEnv("STORAGE_ALLOWED_FORMATS", "jpg,jpeg,png,gif,webp,mp4,mov,webm")),
		},
		BindAddr:       getEnv("API_BIND_ADDR", "0.0.0.0:"+getEnv("PORT", "5000")),
		AllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", 100<<20)),
		RefreshOnAPI:   getBool("REFRESH_ON_API", true),
	}

	if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required")
	}
	if c.Storage.Folder == "" {
		return nil, fmt.Errorf("STORAGE_FOLDER cannot be empty")
	}
	if len(c.Storage.AllowedFormats) == 0 {
		return nil, fmt.Errorf("STORAGE_ALLOWED_FORMATS must contain at least one format")
	}
	if c.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return c, nil
}

// LoadRefresher builds a Refresher config from environment variables.
func LoadRefresher() (*Refresher, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}
	return &Refresher{Common: *common, Once: getBool("REFRESH_ONCE", false)}, nil
}

func loadCommon() (*Common, error) {
	c := &Common{
		Mongo: Mongo{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DATABASE", "glacier"),
		},
		NewsStore: strings.ToLower(getEnv("NEWS_STORE", StoreMongo)),
		Elasticsearch: Elasticsearch{
			Addr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
			Index: getEnv("ELASTICSEARCH_INDEX", "news"),
		},
		News: NewsSource{
			Provider:   strings.ToLower(getEnv("NEWS_PROVIDER", ProviderGNews)),
			BaseURL:    getEnv("NEWS_API_URL", ""),
			APIKey:     getEnv("NEWS_API_KEY", ""),
			Language:   getEnv("NEWS_LANGUAGE", "en"),
			MaxResults: getInt("NEWS_MAX_RESULTS", 10),
			Interval:   getDuration("REFRESH_INTERVAL", "3h"),
			Timeout:    getDuration("REFRESH_TIMEOUT", "1m"),
		},
		Kafka: Kafka{
			Brokers: splitAndTrim(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "news_refreshed"),
		},
	}

	if c.Mongo.URI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	switch c.NewsStore {
	case StoreMongo, StoreElasticsearch:
	default:
		return nil, fmt.Errorf("NEWS_STORE must be %q or %q, got %q", StoreMongo, StoreElasticsearch, c.NewsStore)
	}
	switch c.News.Provider {
	case ProviderGNews, ProviderNewsAPI:
	default:
		return nil, fmt.Errorf("NEWS_PROVIDER must be %q or %q, got %q", ProviderGNews, ProviderNewsAPI, c.News.Provider)
	}
	if c.News.APIKey == "" {
		return nil, fmt.Errorf("NEWS_API_KEY is required")
	}
	if c.News.MaxResults <= 0 {
		return nil, fmt.Errorf("NEWS_MAX_RESULTS must be positive")
	}
	if c.News.Interval <= 0 {
		return nil, fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	if c.News.Timeout <= 0 {
		return nil, fmt.Errorf("REFRESH_TIMEOUT must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
