package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrUnknownBackend = errors.New("unknown cache store backend")
	ErrCorrupt        = errors.New("corrupt cache snapshot")
	ErrClosed         = errors.New("cache store closed")
)
