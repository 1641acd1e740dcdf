package errors

import (
	"errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError covers malformed input: bad ids, zero deltas, unknown
// movement types, out of range paging.
type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

// InvariantViolationError is returned when an otherwise valid operation would
// break a stored invariant, such as a stock quantity dropping below zero.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string {
	return e.Message
}

func NewInvariantViolationError(message string) *InvariantViolationError {
	return &InvariantViolationError{Message: message}
}

func IsInvariantViolationError(err error) (*InvariantViolationError, bool) {
	var iv *InvariantViolationError
	if errors.As(err, &iv) {
		return iv, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// DeadlockError wraps a lock wait timeout or deadlock reported by the store.
// Callers may retry the whole operation.
type DeadlockError struct {
	Message string
	Cause   error
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func (e *DeadlockError) Unwrap() error {
	return e.Cause
}

func NewDeadlockError(message string, cause error) *DeadlockError {
	return &DeadlockError{
		Message: message,
		Cause:   cause,
	}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	var de *DeadlockError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CanceledError is returned when the caller's context ended before the work
// finished. Nothing was committed.
type CanceledError struct {
	Message string
	Cause   error
}

func (e *CanceledError) Error() string {
	return e.Message
}

func (e *CanceledError) Unwrap() error {
	return e.Cause
}

func NewCanceledError(message string, cause error) *CanceledError {
	return &CanceledError{
		Message: message,
		Cause:   cause,
	}
}

func IsCanceledError(err error) (*CanceledError, bool) {
	var ce *CanceledError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
