package match

import (
	"time"

	"github.com/okian/tourcheck/pkg/logger"
)

// Bulk classification defaults.
const (
	DefaultBatchSize  = 3
	DefaultBatchPause = 200 * time.Millisecond
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBatch sets the bulk batch size and the pause between batches.
func WithBatch(size int, pause time.Duration) Option {
	return func(e *Engine) {
		if size > 0 {
			e.bulk.Size = size
		}
		if pause >= 0 {
			e.bulk.Pause = pause
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
