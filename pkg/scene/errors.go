package scene

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation references a non-existent id.
var ErrNotFound = errors.New("node not found")

// ErrInvalidParent is returned when a child kind is not permitted under the
// given parent kind.
var ErrInvalidParent = errors.New("invalid parent kind")

// ErrCycle is returned when an update would make a node its own ancestor.
var ErrCycle = errors.New("operation would create a cycle")

// ValidationError reports malformed node input at creation or update,
// naming the offending field.
type ValidationError struct {
	Kind    NodeKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s node: %s: %s", e.Kind, e.Field, e.Message)
}

func validationErr(kind NodeKind, field, format string, args ...any) error {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}
