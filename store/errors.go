package store

import "errors"

// ErrNotFound is returned when a lookup by id misses. Callers normally wrap
// it into a state error at the command boundary per §7.
var ErrNotFound = errors.New("not found")
