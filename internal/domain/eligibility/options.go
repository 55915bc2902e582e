package eligibility

import (
	"time"

	"github.com/okian/tourcheck/pkg/logger"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithClock sets the time source for override timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}
