// Error taxonomy shared by the record store and the flow controller.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrAccessDenied means an ownership check failed. Fatal to the
	// attempted operation, never retried.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound means a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPersistence means the durable medium could not be read or written.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError carries field-keyed human-readable messages. It is
// recoverable: the flow controller maps it to stage-local messages and
// keeps the user on the current stage.
type ValidationError struct {
	Fields map[string]string
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
