// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds all daemon configuration, loaded in layers: built-in defaults,
// an optional YAML config file, then environment variables. Immutable after
// Load() and safe for concurrent reads.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Backend BackendConfig `koanf:"backend"`
	Cache   CacheConfig   `koanf:"cache"`
	Storage StorageConfig `koanf:"storage"`
	API     APIConfig     `koanf:"api"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds the local HTTP surface settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig holds the remote book review backend connection settings.
//
// Environment Variables:
//   - BACKEND_URL: base URL including the /api prefix (required),
//     e.g. https://bookreview.example.com/api
//   - BACKEND_TIMEOUT: per-request timeout (default: 30s)
//   - BACKEND_MAX_RETRIES: retry budget for 429 responses (default: 3)
//   - BACKEND_RATE_LIMIT_RPS / BACKEND_RATE_LIMIT_BURST: outbound budget
//   - BACKEND_BREAKER_ENABLED: circuit breaker toggle (default: true)
type BackendConfig struct {
	URL            string        `koanf:"url"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RateLimitRPS   float64       `koanf:"rate_limit_rps"`
	RateLimitBurst int           `koanf:"rate_limit_burst"`
	BreakerEnabled bool          `koanf:"breaker_enabled"`

	// TokenRefreshLeeway is how long before bearer expiry the refresher
	// attempts a proactive token rotation.
	TokenRefreshLeeway time.Duration `koanf:"token_refresh_leeway"`
}

// CacheConfig holds query-cache stale times. Recommendations are costlier
// server-side than ordinary catalog reads and get longer windows; the AI
// source is the costliest and gets the longest.
type CacheConfig struct {
	DefaultStaleTime          time.Duration `koanf:"default_stale_time"`
	RecommendationStaleTime   time.Duration `koanf:"recommendation_stale_time"`
	AIRecommendationStaleTime time.Duration `koanf:"ai_recommendation_stale_time"`
	CleanupInterval           time.Duration `koanf:"cleanup_interval"`
}

// StorageConfig holds the local credential store settings.
type StorageConfig struct {
	// Dir is the badger database directory.
	Dir string `koanf:"dir"`

	// EncryptionKey is a base64-encoded master key (decoded length >= 16
	// bytes) used to derive the AES key for the persisted credential record.
	// Empty disables encryption at rest.
	EncryptionKey string `koanf:"encryption_key"`
}

// APIConfig holds local surface behavior: CORS, rate limiting, pagination.
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	DefaultPageSize   int           `koanf:"default_page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes caller file:line in log output.
	Caller bool `koanf:"caller"`
}

// Validate checks the configuration for missing or malformed values.
// Called by Load() after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required (set BACKEND_URL)")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("backend.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.url must use http or https, got %q", u.Scheme)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %v", c.Backend.Timeout)
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("backend.max_retries must not be negative, got %d", c.Backend.MaxRetries)
	}

	if c.Cache.DefaultStaleTime <= 0 {
		return fmt.Errorf("cache.default_stale_time must be positive, got %v", c.Cache.DefaultStaleTime)
	}
	if c.Cache.RecommendationStaleTime <= 0 || c.Cache.AIRecommendationStaleTime <= 0 {
		return fmt.Errorf("cache stale times must be positive")
	}

	if c.Storage.EncryptionKey != "" {
		raw, err := base64.StdEncoding.DecodeString(c.Storage.EncryptionKey)
		if err != nil {
			return fmt.Errorf("storage.encryption_key is not valid base64: %w", err)
		}
		if len(raw) < 16 {
			return fmt.Errorf("storage.encryption_key must decode to at least 16 bytes, got %d", len(raw))
		}
	}

	if c.API.DefaultPageSize < 1 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api page sizes invalid: default=%d max=%d",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
