package storage

import "errors"

// ErrNotFound reports a missing record. The postgres store surfaces
// sql.ErrNoRows directly; the memory store wraps this sentinel.
var ErrNotFound = errors.New("record not found")
