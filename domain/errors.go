package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeAuthFailed   ErrorCode = "AUTH_FAILED"
	ErrCodeUnavailable  ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeDecode       ErrorCode = "DECODE_ERROR"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches domain errors by code and message so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound    = NewError(ErrCodeNotFound, "session not found")
	ErrCredentialNotFound = NewError(ErrCodeNotFound, "no stored credential")
	ErrUnauthenticated    = NewError(ErrCodeUnauthorized, "sign in required")
	ErrInvalidCredentials = NewError(ErrCodeAuthFailed, "invalid email or password")
	ErrEmailInUse         = NewError(ErrCodeAuthFailed, "email already in use")
	ErrInvalidToken       = NewError(ErrCodeAuthFailed, "invalid or expired credential")
	ErrTitleRequired      = NewError(ErrCodeInvalid, "title is required")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
	ErrStaleTaskStatus    = NewError(ErrCodeConflict, "task status changed, reload and retry")
	ErrRequestInFlight    = NewError(ErrCodeConflict, "request already in progress")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}

// Unavailable classifies a raw backend failure. Domain errors pass through untouched.
func Unavailable(message string, err error) error {
	if err == nil {
		return nil
	}
	var dErr *Error
	if errors.As(err, &dErr) {
		return err
	}
	return WrapError(ErrCodeUnavailable, message, err)
}

// DecodeError reports a stored record that does not match the expected schema.
func DecodeError(kind, id string, err error) *Error {
	return WrapError(ErrCodeDecode, fmt.Sprintf("malformed %s record %q", kind, id), err)
}
