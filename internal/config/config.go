// Package config defines service configuration structures and loading hooks.
//
// Keys are flat and snake_case so that TOURCHECK_CACHE_MAX_AGE maps onto
// cache_max_age without a nesting convention.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/tourcheck/internal/adapters/repository"
)

// Roster source kinds.
const (
	SourceHTTP   = "http"
	SourceStatic = "static"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CacheStore picks the durable store: file, leveldb, sqlite or memory.
	CacheStore           string        `koanf:"cache_store"`
	CachePath            string        `koanf:"cache_path"`
	CacheMaxAge          time.Duration `koanf:"cache_max_age"`
	CachePersistEvery    int           `koanf:"cache_persist_every"`
	CacheCleanupInterval time.Duration `koanf:"cache_cleanup_interval"`

	// RosterSource is http (scrape the tour site) or static (RosterStaticNames).
	RosterSource            string        `koanf:"roster_source"`
	RosterRankingsURL       string        `koanf:"roster_rankings_url"`
	RosterIndexURL          string        `koanf:"roster_index_url"`
	RosterStaticNames       []string      `koanf:"roster_static_names"`
	RosterRefreshInterval   time.Duration `koanf:"roster_refresh_interval"`
	RosterFetchTimeout      time.Duration `koanf:"roster_fetch_timeout"`
	RosterRetryAfter        time.Duration `koanf:"roster_retry_after"`
	RosterRequestsPerSecond float64       `koanf:"roster_requests_per_second"`

	// Bulk ceilings, enforced before any lookup.
	PlayerBulkMax int `koanf:"player_bulk_max"`
	MatchBulkMax  int `koanf:"match_bulk_max"`
	RowsMax       int `koanf:"rows_max"`

	PlayerBatchSize  int           `koanf:"player_batch_size"`
	PlayerBatchPause time.Duration `koanf:"player_batch_pause"`
	MatchBatchSize   int           `koanf:"match_batch_size"`
	MatchBatchPause  time.Duration `koanf:"match_batch_pause"`
	RowBatchSize     int           `koanf:"row_batch_size"`
	RowBatchPause    time.Duration `koanf:"row_batch_pause"`

	RowsHomeField   string `koanf:"rows_home_field"`
	RowsAwayField   string `koanf:"rows_away_field"`
	RowsStatusField string `koanf:"rows_status_field"`

	// OverridesFile is an optional YAML list of manual overrides, watched for changes.
	OverridesFile string `koanf:"overrides_file"`

	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New returns a Config populated with defaults. The context is accepted for
// symmetry with Load and is unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",

		CacheStore:           repository.BackendFile,
		CachePath:            "data/player-cache.json",
		CacheMaxAge:          24 * time.Hour,
		CachePersistEvery:    10,
		CacheCleanupInterval: time.Hour,

		RosterSource:            SourceHTTP,
		RosterRefreshInterval:   24 * time.Hour,
		RosterFetchTimeout:      10 * time.Second,
		RosterRetryAfter:        5 * time.Minute,
		RosterRequestsPerSecond: 1,

		PlayerBulkMax: 50,
		MatchBulkMax:  25,
		RowsMax:       200,

		PlayerBatchSize:  5,
		PlayerBatchPause: 200 * time.Millisecond,
		MatchBatchSize:   3,
		MatchBatchPause:  200 * time.Millisecond,
		RowBatchSize:     10,
		RowBatchPause:    100 * time.Millisecond,

		RowsHomeField:   "homeopponent",
		RowsAwayField:   "awayopponent",
		RowsStatusField: "WTA?",

		MetricsEnabled: true,
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	switch c.CacheStore {
	case repository.BackendFile, repository.BackendLevelDB, repository.BackendSQLite:
		if c.CachePath == "" {
			return fmt.Errorf("%w: cache_path is required for the %s store", ErrInvalidConfig, c.CacheStore)
		}
	case repository.BackendMemory:
	default:
		return fmt.Errorf("%w: unknown cache_store %q", ErrInvalidConfig, c.CacheStore)
	}
	switch c.RosterSource {
	case SourceHTTP, SourceStatic:
	default:
		return fmt.Errorf("%w: unknown roster_source %q", ErrInvalidConfig, c.RosterSource)
	}

	positive := []struct {
		key string
		val int
	}{
		{"player_bulk_max", c.PlayerBulkMax},
		{"match_bulk_max", c.MatchBulkMax},
		{"rows_max", c.RowsMax},
		{"player_batch_size", c.PlayerBatchSize},
		{"match_batch_size", c.MatchBatchSize},
		{"row_batch_size", c.RowBatchSize},
		{"cache_persist_every", c.CachePersistEvery},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.key, p.val)
		}
	}
	if c.CacheMaxAge <= 0 || c.RosterRefreshInterval <= 0 || c.RosterFetchTimeout <= 0 {
		return fmt.Errorf("%w: cache_max_age, roster_refresh_interval and roster_fetch_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
