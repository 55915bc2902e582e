package repository

import "os"

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	fileMode os.FileMode
	table    string
}

func defaultOptions(opts []Option) options {
	o := options{fileMode: 0o600, table: "cache_entries"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithFileMode sets the permission bits of snapshot files.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		if mode != 0 {
			o.fileMode = mode
		}
	}
}

// WithTableName sets the SQLite table holding entries.
func WithTableName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}
