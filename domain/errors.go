package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Concrete errors below match them through errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type NotFoundError struct {
	Resource string
	IDs      []string
}

func (e *NotFoundError) Error() string {
	switch len(e.IDs) {
	case 0:
		return fmt.Sprintf("%s not found", e.Resource)
	case 1:
		return fmt.Sprintf("%s with ID %s not found", e.Resource, e.IDs[0])
	default:
		return fmt.Sprintf("%ss with IDs %s not found", e.Resource, strings.Join(e.IDs, ", "))
	}
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NewNotFound(resource string, ids ...string) *NotFoundError {
	return &NotFoundError{Resource: resource, IDs: ids}
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError is a request that clashes with stored state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func NewConflict(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError is the validation failure raised when a medicine
// cannot cover the requested quantity.
type InsufficientStockError struct {
	MedicineID string
	Name       string
	Available  int
	Requested  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrValidation }

// TransactionError wraps a storage failure that aborted a transaction.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// ErrStockConflict is returned by a guarded decrement that matched no row.
var ErrStockConflict = errors.New("stock changed concurrently")

// AuthError is an authentication or authorization failure with a client-facing message.
type AuthError struct {
	Message string
	Kind    error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Is(target error) bool { return target == e.Kind }

func NewUnauthorized(msg string) *AuthError {
	return &AuthError{Message: msg, Kind: ErrUnauthorized}
}

func NewForbidden(msg string) *AuthError {
	return &AuthError{Message: msg, Kind: ErrForbidden}
}
