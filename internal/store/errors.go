package store

import (
	"errors"
	"fmt"
)

var (
	ErrScreenshotNotFound = errors.New("screenshot not found")
	ErrScreenshotExists   = errors.New("screenshot already exists")
	ErrModuleNotFound     = errors.New("module not found")
	ErrModuleExists       = errors.New("module already exists")
	ErrInvalidModule      = errors.New("invalid module")
	ErrInvalidStatus      = errors.New("invalid screenshot status")
	ErrInvalidAsset       = errors.New("invalid asset reference")
	// ErrOrderMismatch is returned when a reorder request is not a
	// permutation of the module's current screenshot ids.
	ErrOrderMismatch = errors.New("screenshot order does not match module")
	// ErrRegionIDConflict is returned when a region id is already owned by
	// a different screenshot.
	ErrRegionIDConflict = errors.New("region id belongs to another screenshot")
)

// PersistenceError wraps a failure to read, decode, encode or write the root
// document. The document in storage is left as it was before the call.
type PersistenceError struct {
	Op  string // get, decode, encode, put
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
