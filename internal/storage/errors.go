package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedVersion indicates a document written by a newer release.
	ErrUnsupportedVersion = errors.New("unsupported schema version")

	// ErrMalformedDocument indicates a document that is neither an array nor an object.
	ErrMalformedDocument = errors.New("malformed task document")

	// ErrUnknownBackend indicates a backend name that is not recognised.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// PersistenceError reports a failed backend operation.
type PersistenceError struct {
	Op       string // read, write, quarantine, open
	Location string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Location, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ValidationError is a schema violation at a document path.
type ValidationError struct {
	Path string // dot path to the offending value, empty for the root
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
