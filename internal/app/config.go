package service

import (
	"github.com/okian/tourcheck/internal/adapters/source"
	"github.com/okian/tourcheck/internal/config"
	"github.com/okian/tourcheck/internal/domain/roster"
	"github.com/okian/tourcheck/pkg/logger"
)

// FromConfig translates loaded configuration into service options.
func FromConfig(cfg *config.Config, log logger.Logger) []Option {
	return []Option{
		WithLogger(log),
		WithStoreBackend(cfg.CacheStore, cfg.CachePath),
		WithCache(cfg.CacheMaxAge, cfg.CachePersistEvery, cfg.CacheCleanupInterval),
		WithRosterSource(RosterSource(cfg, log)),
		WithRosterTimings(cfg.RosterRefreshInterval, cfg.RosterFetchTimeout, cfg.RosterRetryAfter),
		WithLimits(cfg.PlayerBulkMax, cfg.MatchBulkMax, cfg.RowsMax),
		WithPlayerBatch(cfg.PlayerBatchSize, cfg.PlayerBatchPause),
		WithMatchBatch(cfg.MatchBatchSize, cfg.MatchBatchPause),
		WithRowBatch(cfg.RowBatchSize, cfg.RowBatchPause),
		WithRowFields(cfg.RowsHomeField, cfg.RowsAwayField, cfg.RowsStatusField),
		WithOverridesFile(cfg.OverridesFile),
	}
}

// RosterSource builds the configured roster source.
func RosterSource(cfg *config.Config, log logger.Logger) roster.Source {
	if cfg.RosterSource == config.SourceStatic {
		return source.NewStatic(cfg.RosterStaticNames)
	}
	opts := []source.HTTPOption{
		source.WithRankingsURL(cfg.RosterRankingsURL),
		source.WithTimeout(cfg.RosterFetchTimeout),
		source.WithRequestsPerSecond(cfg.RosterRequestsPerSecond),
	}
	if cfg.RosterIndexURL != "" {
		opts = append(opts, source.WithIndexURL(cfg.RosterIndexURL))
	}
	if log != nil {
		opts = append(opts, source.WithLogger(log.Named("roster_source")))
	}
	return source.NewHTTPSource(opts...)
}
