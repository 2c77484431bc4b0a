package domain

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition indicates an order status change outside the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrProductUnavailable is returned when adding a product that is not sold.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrOutOfStock is returned when no unit of the product can be added.
	ErrOutOfStock = errors.New("out of stock")
	// ErrOrderIncomplete marks an order that was created but whose follow-up writes failed.
	ErrOrderIncomplete = errors.New("order incomplete")
)

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
