// Package apperrors defines the typed failure taxonomy shared by the
// domain and service layers: NotFound, Conflict and Validation.
// Handlers map each kind to an HTTP status; nothing is retried
// internally.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind byte

const (
	// KindNotFound signals that a referenced entity does not exist.
	KindNotFound Kind = iota + 1
	// KindConflict signals a state, capacity or ownership rule violation.
	KindConflict
	// KindValidation signals malformed input.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a typed domain failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

// IsNotFound reports whether err is a KindNotFound failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err is a KindConflict failure.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsValidation reports whether err is a KindValidation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
