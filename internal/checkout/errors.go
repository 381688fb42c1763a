package checkout

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrEmptyCart is wrapped by the ValidationError returned for a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMissingOrderID is wrapped by the TransportError returned when a successful
	// response carries no order id.
	ErrMissingOrderID = errors.New("response has no order id")
)

// ValidationError blocks a checkout before anything is sent.
type ValidationError struct {
	Fields FieldErrors
	Err    error
}

func (e *ValidationError) Error() string {
	return "checkout validation failed: " + formatFields(e.Fields)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SubmissionError carries the field-level rejection returned by the backend.
type SubmissionError struct {
	Fields FieldErrors
}

func (e *SubmissionError) Error() string {
	return "order rejected: " + formatFields(e.Fields)
}

// TransportError is any other failure of the create-order call. Callers may retry.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func formatFields(f FieldErrors) string {
	keys := slices.Sorted(maps.Keys(f))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(f[k], ", "))
	}
	return strings.Join(parts, "; ")
}
