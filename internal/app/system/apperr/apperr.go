// internal/app/system/apperr/apperr.go
// Package apperr defines the typed, user-facing error taxonomy shared by the
// mutation façade and the API route handlers. Role and ownership checks fail
// fast inside store transactions and surface one of these codes; anything
// unclassified is treated as an infrastructure failure and reported as a 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure for the API caller.
type Code string

const (
	CodeUnauthorized  Code = "UNAUTHORIZED"   // no or invalid app session
	CodeForbidden     Code = "FORBIDDEN"      // authenticated but lacks the required role
	CodeNotFound      Code = "NOT_FOUND"      // room or document absent
	CodeLastOwner     Code = "LAST_OWNER"     // operation would leave a room with zero owners
	CodeAlreadyMember Code = "ALREADY_MEMBER" // invitee already has a membership
	CodeValidation    Code = "VALIDATION"     // malformed input (bad id, bad email, ...)
)

// Error is a coded error with a user-facing message.
type Error struct {
	Code    Code
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, err: err}
}

// CodeOf extracts the code from err, or "" if err is not a coded error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is lets errors.Is match coded errors by code, so callers can compare
// against a sentinel like apperr.New(apperr.CodeLastOwner, "").
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus maps a code to its HTTP response status. Unclassified errors
// map to 500.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLastOwner, CodeAlreadyMember:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
