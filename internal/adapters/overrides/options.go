package overrides

import "github.com/okian/tourcheck/pkg/logger"

// Option applies a configuration option to the Seeder.
type Option func(*Seeder)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Seeder) {
		if l != nil {
			s.log = l
		}
	}
}
