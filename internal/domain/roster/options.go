package roster

import (
	"time"

	"github.com/okian/tourcheck/pkg/logger"
)

// Option applies a configuration option to the Authority.
type Option func(*Authority)

// WithCache mirrors the roster into the confidence cache for cold-start
// recovery.
func WithCache(c Cache) Option {
	return func(a *Authority) {
		a.cache = c
	}
}

// WithRefreshInterval sets how long a roster stays fresh.
func WithRefreshInterval(d time.Duration) Option {
	return func(a *Authority) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithFetchTimeout bounds each source fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(a *Authority) {
		if d > 0 {
			a.fetchTimeout = d
		}
	}
}

// WithRetryAfter sets the wait after a failed refresh.
func WithRetryAfter(d time.Duration) Option {
	return func(a *Authority) {
		if d > 0 {
			a.retryAfter = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Authority) {
		if l != nil {
			a.log = l
		}
	}
}
