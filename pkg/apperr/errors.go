// Package apperr defines the error taxonomy shared by all request paths.
//
// Handlers translate these into the uniform {"success": false, "message": ...}
// envelope; everything else stays internal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping
type Kind int

const (
	// KindValidation is a malformed or missing required field (400)
	KindValidation Kind = iota
	// KindUnauthenticated is a missing/invalid/expired credential or session (401).
	// The message is deliberately undifferentiated so callers cannot probe
	// which condition failed.
	KindUnauthenticated
	// KindNotFound is a resource that does not exist or is outside the caller's scope (404)
	KindNotFound
	// KindRateLimited is a request over its window budget (429)
	KindRateLimited
	// KindStorage is a relational store failure (500)
	KindStorage
	// KindCache is a cache failure; downgraded to a miss internally and
	// never surfaced to callers as a 500
	KindCache
)

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	// Fields holds field-level detail for validation errors
	Fields map[string]string
	// Err is the wrapped internal cause, only exposed in non-production builds
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a field-level validation error
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Unauthenticated creates an auth failure with the uniform message
func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "invalid or missing credentials"}
}

// NotFound creates a not-found error
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// RateLimited creates an over-budget error
func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: "rate limit exceeded"}
}

// Storage wraps a relational store failure
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "storage operation failed", Err: err}
}

// Cache wraps a cache failure
func Cache(err error) *Error {
	return &Error{Kind: KindCache, Message: "cache operation failed", Err: err}
}

// As extracts an *Error from an error chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	if appErr, ok := As(err); ok {
		return appErr.Kind == kind
	}
	return false
}
