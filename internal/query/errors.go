package query

import (
	"errors"
	"fmt"
)

// ErrUnknownSortKey is returned when the sort key is neither a requested
// dimension nor a requested metric.
var ErrUnknownSortKey = errors.New("unknown sort key")

// ValidationError rejects a query before it reaches the engine.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func wrapInvalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}
