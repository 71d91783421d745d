package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidTransition indicates a journal entry lifecycle violation, e.g.
// posting an already-posted entry or voiding a draft. The caller should
// re-fetch the entry's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrPeriodClosed indicates the entry date falls inside a closed accounting
// period. Not retryable without an explicit period reopen.
var ErrPeriodClosed = errors.New("accounting period is closed")

// ErrConflict indicates transient contention that persisted past the bounded
// retry limit.
var ErrConflict = errors.New("conflicting concurrent update")

// ErrForeignTenant indicates an attempted cross-tenant reference. Always
// fatal; it means a caller bug or an attack.
var ErrForeignTenant = errors.New("resource belongs to a different tenant")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// UnbalancedError reports that an entry's debits and credits do not sum to
// zero, carrying the exact delta in minor units so the UI can surface it.
type UnbalancedError struct {
	DeltaCents int64 // debits minus credits
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("entry is unbalanced: debits minus credits is %d minor units", e.DeltaCents)
}

// Is makes UnbalancedError match ErrValidation in errors.Is chains.
func (e *UnbalancedError) Is(target error) bool {
	return target == ErrValidation
}

// AppError wraps a lower-level error with an application status code and
// message. Repositories use this for infrastructure failures.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
