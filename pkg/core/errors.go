package core

import "fmt"

// SourceUnavailableError is returned when a record source cannot supply its
// data: the transfer failed or the payload could not be decoded.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a SourceUnavailableError for source.
func Unavailable(source string, err error) error {
	return &SourceUnavailableError{Source: source, Err: err}
}
