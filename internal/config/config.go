// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and FANTASY_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Supported persistence back-ends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence back-end: memory, file, sqlite or postgres.
	Store string `koanf:"store"`

	// StorePath is the JSON file (file) or database file (sqlite).
	StorePath string `koanf:"store_path"`

	// DatabaseURL is the postgres DSN.
	DatabaseURL string `koanf:"database_url"`

	// SaveDebounceMS delays saves so bursts of mutations collapse into one write.
	SaveDebounceMS int `koanf:"save_debounce_ms"`

	// SaveQueueSize bounds pending save requests.
	SaveQueueSize int `koanf:"save_queue_size"`

	// DedupeSize sets the number of remembered Idempotency-Key values.
	DedupeSize int `koanf:"dedupe_size"`

	// CatalogFile optionally replaces the packaged default catalog at seed time.
	CatalogFile string `koanf:"catalog_file"`

	// CORSAllowedOrigins is a comma-separated list of origins.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// MaxFeedLimit caps GET /api/logged-events?limit.
	MaxFeedLimit int `koanf:"max_feed_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Store:              StoreFile,
		StorePath:          "data/fantasy-family.json",
		SaveDebounceMS:     500,
		SaveQueueSize:      64,
		DedupeSize:         10_000,
		CORSAllowedOrigins: "*",
		MaxFeedLimit:       200,
	}
}

// SaveDebounce returns SaveDebounceMS as a duration.
func (c *Config) SaveDebounce() time.Duration {
	return time.Duration(c.SaveDebounceMS) * time.Millisecond
}

// AllowedOrigins splits CORSAllowedOrigins into trimmed, non-empty entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory:
	case StoreFile, StoreSQLite:
		if strings.TrimSpace(c.StorePath) == "" {
			return fmt.Errorf("%w: store_path is required for %s store", ErrInvalidConfig, c.Store)
		}
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("%w: database_url is required for postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.SaveDebounceMS < 0 {
		return fmt.Errorf("%w: save_debounce_ms must not be negative", ErrInvalidConfig)
	}
	if c.SaveQueueSize <= 0 {
		return fmt.Errorf("%w: save_queue_size must be positive", ErrInvalidConfig)
	}
	if c.MaxFeedLimit <= 0 {
		return fmt.Errorf("%w: max_feed_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
