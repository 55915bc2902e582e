package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrBadStatus   = errors.New("unexpected roster page status")
	ErrRateLimited = errors.New("roster request not admitted")
)
