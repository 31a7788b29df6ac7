package store

import "errors"

// ErrCapacity is returned when the log region has no room for another
// record.
var ErrCapacity = errors.New("storage capacity exhausted")
