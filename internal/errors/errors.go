// Package errors provides the coded domain errors returned by the catalog services.
//
// Usage:
//
//	// In services - return typed errors
//	if errors.Is(err, store.ErrAlreadyExists) {
//	    return errors.AlreadyExists(errors.ReasonUsernameTaken, "username already in use")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrNotFound) {
//	    ...
//	}
//
//	// Or inspect the symbolic reason
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) && domainErr.Reason == errors.ReasonNovelNotFound {
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error class.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeValidation    Code = "VALIDATION"
	CodeConflict      Code = "CONFLICT"
	CodeInternal      Code = "INTERNAL"
)

// Symbolic reasons carried by not-found and uniqueness errors.
const (
	ReasonUserNotFound    = "USER_NOT_FOUND"
	ReasonNovelNotFound   = "NOVEL_NOT_FOUND"
	ReasonChapterNotFound = "CHAPTER_NOT_FOUND"
	ReasonUsernameTaken   = "USERNAME_ALREADY_EXISTS"
	ReasonNovelExists     = "NID_ALREADY_EXISTS"
	ReasonChapterExists   = "CHAPTER_ALREADY_EXISTS"
	ReasonCIDExists       = "CID_ALREADY_EXISTS"
	ReasonIndexExhausted  = "CHAPTER_INDEX_CONFLICT"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, a symbolic reason, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
// A cause that is also the Details value is already part of Message.
func (e *Error) Error() string {
	if e.cause != nil && e.cause != e.Details {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Reason:  e.Reason,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Reason:  e.Reason,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// FieldError identifies the first field that failed validation.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error implements the error interface.
func (f *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict      = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal      = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error with a symbolic reason.
func NotFound(reason, msg string) *Error {
	return &Error{Code: CodeNotFound, Reason: reason, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(reason, format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates a uniqueness violation error.
func AlreadyExists(reason, msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Reason: reason, Message: msg}
}

// Conflict creates a conflict error.
func Conflict(reason, msg string) *Error {
	return &Error{Code: CodeConflict, Reason: reason, Message: msg}
}

// Conflictf creates a conflict error with formatted message.
func Conflictf(reason, format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error for a single offending field.
// The field error is available both as Details and through errors.As.
func Validation(field, reason string) *Error {
	fe := &FieldError{Field: field, Reason: reason}
	return &Error{
		Code:    CodeValidation,
		Reason:  reason,
		Message: "validation failed: " + fe.Error(),
		Details: fe,
		cause:   fe,
	}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// ReasonOf returns the symbolic reason of a domain error, or "" when err is not one.
func ReasonOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Reason
	}
	return ""
}
