package inference

import "github.com/okian/tourcheck/pkg/logger"

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithCache memoizes results. Without it every call evaluates the methods.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithMethods replaces the method list. Order is priority order.
func WithMethods(methods ...Method) Option {
	return func(r *Resolver) {
		r.methods = append([]Method{}, methods...)
	}
}

// WithScoringTable replaces the heuristic table.
func WithScoringTable(t ScoringTable) Option {
	return func(r *Resolver) {
		r.table = t
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
