package index

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a query without clauses reaches the
	// index.
	ErrEmptyQuery = errors.New("empty query")
	// ErrExists is returned by Create when an index is already in place.
	ErrExists = errors.New("index already exists")
)

// CorruptError means the file at Path is not a complete index of the
// current schema. Callers treat it like a missing index: delete and rebuild.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("index %s is unusable: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}
