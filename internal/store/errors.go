package store

import "errors"

// ErrNotFound signals a missing record; genuine I/O failures are returned
// as-is.
var ErrNotFound = errors.New("record not found")
