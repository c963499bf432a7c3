// Package repository holds the persistence of the POS service: archived
// receipts and sale incidents in MySQL, session snapshots in Redis.  The
// sentinel errors below let handlers tell a missing row from a state
// conflict without looking at driver errors.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.  Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot be applied because of the
// current state of the row, e.g. resolving an incident twice.  Handlers
// translate it into HTTP 409.
var ErrConflict = errors.New("conflict")
