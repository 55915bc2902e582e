package batch

import "errors"

// ErrItemPanic marks an item whose function panicked.
var ErrItemPanic = errors.New("batch item panicked")
