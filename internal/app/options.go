package service

import (
	"time"

	"github.com/okian/tourcheck/internal/adapters/repository"
	"github.com/okian/tourcheck/internal/adapters/rows"
	"github.com/okian/tourcheck/internal/domain/batch"
	"github.com/okian/tourcheck/internal/domain/cache"
	"github.com/okian/tourcheck/internal/domain/inference"
	"github.com/okian/tourcheck/internal/domain/match"
	"github.com/okian/tourcheck/internal/domain/roster"
	"github.com/okian/tourcheck/pkg/logger"
)

type settings struct {
	store        repository.Store
	storeBackend string
	storePath    string

	cacheMaxAge       time.Duration
	cachePersistEvery int
	cacheCleanup      time.Duration

	rosterSource  roster.Source
	rosterRefresh time.Duration
	rosterTimeout time.Duration
	rosterRetry   time.Duration

	methods []inference.Method

	playerBulkMax int
	matchBulkMax  int
	rowsMax       int

	playerBatch batch.Config
	matchBatch  batch.Config
	rowBatch    batch.Config

	rowHome, rowAway, rowStatus string

	overridesFile string
	now           func() time.Time
	logger        logger.Logger
}

func defaultSettings() settings {
	return settings{
		storeBackend:      repository.BackendMemory,
		cacheMaxAge:       cache.DefaultMaxAge,
		cachePersistEvery: cache.DefaultPersistEvery,
		rosterRefresh:     roster.DefaultRefreshInterval,
		rosterTimeout:     roster.DefaultFetchTimeout,
		rosterRetry:       roster.DefaultRetryAfter,
		playerBulkMax:     DefaultPlayerBulkMax,
		matchBulkMax:      DefaultMatchBulkMax,
		rowsMax:           DefaultRowsMax,
		playerBatch:       batch.Config{Size: 5, Pause: 200 * time.Millisecond, Name: "players"},
		matchBatch:        batch.Config{Size: match.DefaultBatchSize, Pause: match.DefaultBatchPause},
		rowBatch:          batch.Config{Size: rows.DefaultBatchSize, Pause: rows.DefaultBatchPause},
		now:               time.Now,
	}
}

// Option applies a configuration option to the Service.
type Option func(*settings)

// WithStore sets the durable store directly.
func WithStore(st repository.Store) Option {
	return func(s *settings) {
		s.store = st
	}
}

// WithStoreBackend opens backend at path when no store is given.
func WithStoreBackend(backend, path string) Option {
	return func(s *settings) {
		s.storeBackend = backend
		s.storePath = path
	}
}

// WithCache sets the cache lifetime, persist cadence and sweep interval.
func WithCache(maxAge time.Duration, persistEvery int, cleanup time.Duration) Option {
	return func(s *settings) {
		if maxAge > 0 {
			s.cacheMaxAge = maxAge
		}
		if persistEvery > 0 {
			s.cachePersistEvery = persistEvery
		}
		s.cacheCleanup = cleanup
	}
}

// WithRosterSource sets where the roster comes from.
func WithRosterSource(src roster.Source) Option {
	return func(s *settings) {
		s.rosterSource = src
	}
}

// WithRosterTimings sets the refresh interval, fetch timeout and failure backoff.
func WithRosterTimings(refresh, timeout, retry time.Duration) Option {
	return func(s *settings) {
		if refresh > 0 {
			s.rosterRefresh = refresh
		}
		if timeout > 0 {
			s.rosterTimeout = timeout
		}
		if retry > 0 {
			s.rosterRetry = retry
		}
	}
}

// WithInferenceMethods replaces the embedded inference methods.
func WithInferenceMethods(methods ...inference.Method) Option {
	return func(s *settings) {
		s.methods = methods
	}
}

// WithLimits sets the bulk ceilings.
func WithLimits(players, matches, rowsMax int) Option {
	return func(s *settings) {
		if players > 0 {
			s.playerBulkMax = players
		}
		if matches > 0 {
			s.matchBulkMax = matches
		}
		if rowsMax > 0 {
			s.rowsMax = rowsMax
		}
	}
}

// WithPlayerBatch sets bulk player batching.
func WithPlayerBatch(size int, pause time.Duration) Option {
	return func(s *settings) { setBatch(&s.playerBatch, size, pause) }
}

// WithMatchBatch sets bulk match batching.
func WithMatchBatch(size int, pause time.Duration) Option {
	return func(s *settings) { setBatch(&s.matchBatch, size, pause) }
}

// WithRowBatch sets row batching.
func WithRowBatch(size int, pause time.Duration) Option {
	return func(s *settings) { setBatch(&s.rowBatch, size, pause) }
}

func setBatch(c *batch.Config, size int, pause time.Duration) {
	if size > 0 {
		c.Size = size
	}
	if pause >= 0 {
		c.Pause = pause
	}
}

// WithRowFields sets the row column names.
func WithRowFields(home, away, status string) Option {
	return func(s *settings) {
		s.rowHome, s.rowAway, s.rowStatus = home, away, status
	}
}

// WithOverridesFile applies and watches a YAML overrides file.
func WithOverridesFile(path string) Option {
	return func(s *settings) {
		s.overridesFile = path
	}
}

// WithClock replaces time.Now throughout.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
