// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Cache backend selectors.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`

	// CacheBackend selects the cache store: memory, sqlite or postgres.
	CacheBackend string `env:"CACHE_BACKEND" envDefault:"sqlite"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"ekimeshi.db"`

	// SearchConcurrency caps in-flight provider calls per search.
	SearchConcurrency int `env:"SEARCH_CONCURRENCY" envDefault:"3"`

	// CleanupInterval is how often the worker sweeps expired cache entries.
	CleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"6h"`

	Places PlacesConfig `envPrefix:"PLACES_"`
}

// PlacesConfig holds provider-specific configuration.
type PlacesConfig struct {
	APIKey   string `env:"API_KEY"`
	BaseURL  string `env:"BASE_URL"`
	Language string `env:"LANGUAGE" envDefault:"ja"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if c.Places.APIKey == "" {
		return fmt.Errorf("PLACES_API_KEY is required")
	}
	switch c.CacheBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required with CACHE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.SearchConcurrency < 1 {
		return fmt.Errorf("SEARCH_CONCURRENCY must be at least 1, got %d", c.SearchConcurrency)
	}
	return nil
}
