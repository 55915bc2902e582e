package inference

import "errors"

// Sentinel kinds for inference errors.
var (
	ErrBadData     = errors.New("invalid inference data")
	ErrMethodPanic = errors.New("inference method panicked")
)
