package overrides

import "errors"

// ErrLoad marks an unreadable or malformed seed file.
var ErrLoad = errors.New("load overrides file")
