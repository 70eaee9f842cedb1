package repositories

import "errors"

// ErrNotFound is returned by lookups when no row matches. Callers use
// errors.Is to distinguish absence from a real database failure.
var ErrNotFound = errors.New("record not found")
