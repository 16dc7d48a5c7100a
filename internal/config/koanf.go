// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bookreviewd/config.yaml",
	"/etc/bookreviewd/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "BOOKREVIEW_CONFIG"

// defaultConfig returns a Config with all default values. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8390,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			URL:                "",
			Timeout:            30 * time.Second,
			MaxRetries:         3,
			RetryBaseDelay:     time.Second,
			RateLimitRPS:       10,
			RateLimitBurst:     20,
			BreakerEnabled:     true,
			TokenRefreshLeeway: 2 * time.Minute,
		},
		Cache: CacheConfig{
			DefaultStaleTime:          time.Minute,
			RecommendationStaleTime:   5 * time.Minute,
			AIRecommendationStaleTime: 10 * time.Minute,
			CleanupInterval:           5 * time.Minute,
		},
		Storage: StorageConfig{
			Dir:           "/data/bookreviewd",
			EncryptionKey: "",
		},
		API: APIConfig{
			CORSOrigins:       []string{},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			DefaultPageSize:   20,
			MaxPageSize:       100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML file (BOOKREVIEW_CONFIG or DefaultConfigPaths)
//  3. Environment variables: highest priority
//
// The merged result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// BACKEND_URL -> backend.url, CACHE_DEFAULT_STALE_TIME -> cache.default_stale_time
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive as strings from the environment.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values into slices for
// the known slice fields. Env vars come in as strings; YAML already yields
// slices and is left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unknown variables are dropped so unrelated environment noise cannot leak
// into the configuration.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		// Server
		"http_host":             "server.host",
		"http_port":             "server.port",
		"http_read_timeout":     "server.read_timeout",
		"http_write_timeout":    "server.write_timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",

		// Backend
		"backend_url":                  "backend.url",
		"backend_timeout":              "backend.timeout",
		"backend_max_retries":          "backend.max_retries",
		"backend_retry_base_delay":     "backend.retry_base_delay",
		"backend_rate_limit_rps":       "backend.rate_limit_rps",
		"backend_rate_limit_burst":     "backend.rate_limit_burst",
		"backend_breaker_enabled":      "backend.breaker_enabled",
		"backend_token_refresh_leeway": "backend.token_refresh_leeway",

		// Cache
		"cache_default_stale_time":           "cache.default_stale_time",
		"cache_recommendation_stale_time":    "cache.recommendation_stale_time",
		"cache_ai_recommendation_stale_time": "cache.ai_recommendation_stale_time",
		"cache_cleanup_interval":             "cache.cleanup_interval",

		// Storage
		"data_dir":       "storage.dir",
		"encryption_key": "storage.encryption_key",

		// API
		"cors_origins":           "api.cors_origins",
		"rate_limit_requests":    "api.rate_limit_requests",
		"rate_limit_window":      "api.rate_limit_window",
		"disable_rate_limit":     "api.rate_limit_disabled",
		"api_default_page_size":  "api.default_page_size",
		"api_max_page_size":      "api.max_page_size",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return "" // drop unknown variables
}
