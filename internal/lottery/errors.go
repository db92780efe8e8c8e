package lottery

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable failure class carried to callers.
type ErrorCode string

const (
	CodeStoreNotFound          ErrorCode = "STORE_NOT_FOUND"
	CodeDayNotFound            ErrorCode = "DAY_NOT_FOUND"
	CodeDayAlreadyClosed       ErrorCode = "DAY_ALREADY_CLOSED"
	CodeDayNotPending          ErrorCode = "DAY_NOT_PENDING"
	CodePendingExpired         ErrorCode = "PENDING_EXPIRED"
	CodeShiftsStillOpen        ErrorCode = "SHIFTS_STILL_OPEN"
	CodeInvalidClosings        ErrorCode = "INVALID_CLOSINGS"
	CodePackNotFound           ErrorCode = "PACK_NOT_FOUND"
	CodeSerialValidationFailed ErrorCode = "SERIAL_VALIDATION_FAILED"
	CodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
)

// Error is the typed error returned from close workflow operations.
// Details hold structured context safe to surface to API clients.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("lottery: %s: %s", e.Code, e.Message)
}

// Is matches two workflow errors by code, enabling errors.Is checks
// against bare-code sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func newError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func newErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) withDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// CodeOf extracts the workflow error code, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ErrNoDay reports that a store has no business day row yet. Repository
// implementations return it from day lookups; the service maps it to
// the DAY_NOT_FOUND code where that is caller-visible.
var ErrNoDay = errors.New("lottery: business day not found")
