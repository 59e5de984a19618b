package engine

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrServiceUnavailable means no zone snapshot has ever loaded and dynamic
// evaluation cannot run either, so there is nothing to evaluate against.
var ErrServiceUnavailable = eris.New("engine: no zone data available")

// ValidationError rejects a caller-supplied parameter before any lookup runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("engine: invalid %s: %s", e.Field, e.Message)
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
