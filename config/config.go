package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Discover  DiscoverConfig  `yaml:"discover"`
	Batch     BatchConfig     `yaml:"batch"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 5000
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// FetchConfig controls page downloads.
type FetchConfig struct {
	// Timeout bounds a single page fetch. There is no retry.
	Timeout time.Duration `yaml:"timeout"` // default: 10s

	// MaxBodyBytes caps the downloaded body.
	MaxBodyBytes int64 `yaml:"max_body_bytes"` // default: 10 MB

	// UserAgent is sent with every fetch.
	UserAgent string `yaml:"user_agent"`

	// Proxy is an optional http(s) proxy URL.
	Proxy string `yaml:"proxy"`
}

// DiscoverConfig tunes the extraction heuristics.
type DiscoverConfig struct {
	// DefaultStrategy is used when a request names none: "structure" or "links".
	DefaultStrategy string `yaml:"default_strategy"`

	// MinLinkLength is the shortest absolute address the link strategy
	// accepts as an article.
	MinLinkLength int `yaml:"min_link_length"` // default: 20

	// ExcludedPaths are path fragments that mark listing or utility pages.
	ExcludedPaths []string `yaml:"excluded_paths"`

	// ExcludedExtensions are file extensions that are never documents.
	ExcludedExtensions []string `yaml:"excluded_extensions"`

	// SiblingScan bounds how many neighbours of an anchor's parent are
	// searched for an image.
	SiblingScan int `yaml:"sibling_scan"` // default: 3
}

// BatchConfig controls asynchronous multi-page discovery.
type BatchConfig struct {
	// MaxURLs is the largest batch accepted.
	MaxURLs int `yaml:"max_urls"` // default: 100

	// Concurrency is the number of pages processed at once.
	Concurrency int `yaml:"concurrency"` // default: 5

	// Retention is how long finished jobs stay queryable.
	Retention time.Duration `yaml:"retention"` // default: 1h
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication on /api/v1.
	Enabled bool `yaml:"enabled"` // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 5

	// Burst is the maximum burst size.
	Burst int `yaml:"burst"` // default: 10
}

// CORSConfig controls cross-origin access.
type CORSConfig struct {
	// AllowedOrigins lists permitted origins; "*" allows any.
	AllowedOrigins []string `yaml:"allowed_origins"` // default: ["*"]
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Mode: "release",
		},
		Fetch: FetchConfig{
			Timeout:      10 * time.Second,
			MaxBodyBytes: 10 << 20,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		},
		Discover: DiscoverConfig{
			DefaultStrategy: "structure",
			MinLinkLength:   20,
			ExcludedPaths: []string{
				"/tag/", "/tags/", "/category/", "/categories/", "/search",
				"/author/", "/page/", "/archive", "/login", "/signup", "/subscribe",
				"/contact", "/about", "/privacy", "/terms",
			},
			ExcludedExtensions: []string{
				".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp", ".ico",
				".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
				".zip", ".rar", ".7z", ".tar", ".gz",
				".mp3", ".mp4", ".avi", ".mov",
			},
			SiblingScan: 3,
		},
		Batch: BatchConfig{
			MaxURLs:     100,
			Concurrency: 5,
			Retention:   time.Hour,
		},
		Auth: AuthConfig{
			Enabled: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5.0,
			Burst:             10,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: built-in defaults, then the YAML file named
// by SKIM_CONFIG_FILE (if set), then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("SKIM_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// loadFile decodes a YAML file over cfg. Keys absent from the file keep
// their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = envOr("SKIM_HOST", cfg.Server.Host)
	cfg.Server.Port = envIntOr("SKIM_PORT", cfg.Server.Port)
	cfg.Server.Mode = envOr("SKIM_MODE", cfg.Server.Mode)

	cfg.Fetch.Timeout = envDurationOr("SKIM_FETCH_TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.MaxBodyBytes = int64(envIntOr("SKIM_FETCH_MAX_BODY", int(cfg.Fetch.MaxBodyBytes)))
	cfg.Fetch.UserAgent = envOr("SKIM_USER_AGENT", cfg.Fetch.UserAgent)
	cfg.Fetch.Proxy = envOr("SKIM_PROXY", cfg.Fetch.Proxy)

	cfg.Discover.DefaultStrategy = envOr("SKIM_DEFAULT_STRATEGY", cfg.Discover.DefaultStrategy)
	cfg.Discover.MinLinkLength = envIntOr("SKIM_MIN_LINK_LENGTH", cfg.Discover.MinLinkLength)
	cfg.Discover.ExcludedPaths = envSliceOr("SKIM_EXCLUDED_PATHS", cfg.Discover.ExcludedPaths)
	cfg.Discover.ExcludedExtensions = envSliceOr("SKIM_EXCLUDED_EXTENSIONS", cfg.Discover.ExcludedExtensions)
	cfg.Discover.SiblingScan = envIntOr("SKIM_SIBLING_SCAN", cfg.Discover.SiblingScan)

	cfg.Batch.MaxURLs = envIntOr("SKIM_BATCH_MAX_URLS", cfg.Batch.MaxURLs)
	cfg.Batch.Concurrency = envIntOr("SKIM_BATCH_CONCURRENCY", cfg.Batch.Concurrency)
	cfg.Batch.Retention = envDurationOr("SKIM_BATCH_RETENTION", cfg.Batch.Retention)

	cfg.Auth.Enabled = envBoolOr("SKIM_AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.APIKeys = envSliceOr("SKIM_API_KEYS", cfg.Auth.APIKeys)

	cfg.RateLimit.RequestsPerSecond = envFloatOr("SKIM_RATE_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.Burst = envIntOr("SKIM_RATE_BURST", cfg.RateLimit.Burst)

	cfg.CORS.AllowedOrigins = envSliceOr("SKIM_CORS_ORIGINS", cfg.CORS.AllowedOrigins)

	cfg.Log.Level = envOr("SKIM_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("SKIM_LOG_FORMAT", cfg.Log.Format)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
