package storage

import "errors"

// ErrNotFound indicates a record that was expected to exist does not.
var ErrNotFound = errors.New("storage: not found")
