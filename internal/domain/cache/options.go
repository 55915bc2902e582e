package cache

import (
	"time"

	"github.com/okian/tourcheck/internal/adapters/repository"
	"github.com/okian/tourcheck/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithStore sets the durable snapshot store.
func WithStore(s repository.Store) Option {
	return func(c *Cache) {
		if s != nil {
			c.store = s
		}
	}
}

// WithMaxAge sets the entry lifetime.
func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithPersistEvery sets how many insertions trigger a snapshot write.
func WithPersistEvery(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.persistEvery = n
		}
	}
}

// WithCleanupInterval starts a background sweeper calling Cleanup at d.
// Zero keeps the default read-triggered eviction only.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.sweep = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}
