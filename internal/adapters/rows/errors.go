package rows

import "errors"

// ErrNoHeader is returned for empty CSV input.
var ErrNoHeader = errors.New("csv input has no header line")
