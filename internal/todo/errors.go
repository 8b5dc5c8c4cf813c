package todo

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText indicates task text that is empty after trimming.
	ErrEmptyText = errors.New("task text is empty")

	// ErrInvalidPriority indicates an unknown priority name.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrNotFound indicates the id is not in the collection an operation expects.
	ErrNotFound = errors.New("task not found")
)

// Collection names used in NotFoundError.
const (
	CollectionActive  = "tasks"
	CollectionDeleted = "deletedTasks"
)

// ValidationError represents rejected input with the offending field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an id missing from the expected collection.
type NotFoundError struct {
	ID         int64
	Collection string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found in %s", e.ID, e.Collection)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(id int64, collection string) error {
	return &NotFoundError{ID: id, Collection: collection}
}
