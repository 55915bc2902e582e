package roster

import "errors"

// ErrEmptyRoster is returned when a source answers with no names.
var ErrEmptyRoster = errors.New("roster source returned no names")
