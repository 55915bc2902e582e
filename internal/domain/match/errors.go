package match

import "errors"

// ErrResolvePanic marks a player lookup that panicked.
var ErrResolvePanic = errors.New("player resolution panicked")
