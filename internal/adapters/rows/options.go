package rows

import (
	"time"

	"github.com/okian/tourcheck/pkg/logger"
)

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithFields sets the home, away and status column names. Empty keeps the default.
func WithFields(home, away, status string) Option {
	return func(p *Processor) {
		if home != "" {
			p.homeField = home
		}
		if away != "" {
			p.awayField = away
		}
		if status != "" {
			p.statusField = status
		}
	}
}

// WithMaxRows sets the request ceiling.
func WithMaxRows(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxRows = n
		}
	}
}

// WithBatch sets the batch size and the pause between batches.
func WithBatch(size int, pause time.Duration) Option {
	return func(p *Processor) {
		if size > 0 {
			p.batch.Size = size
		}
		if pause >= 0 {
			p.batch.Pause = pause
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}
