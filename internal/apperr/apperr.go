// Package apperr defines the error kinds the API maps onto HTTP statuses.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnhandled Kind = iota
	KindNotFound
	KindUnauthorized
	KindValidation
)

// Error is a classified error. The wrapped cause keeps the stack recorded by
// github.com/pkg/errors at the point the error was created.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// Format prints the message and, with %+v, the stack of the cause.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') && e.cause != nil {
		fmt.Fprintf(s, "%s\n%+v", e.Message, e.cause)
		return
	}
	fmt.Fprint(s, e.Message)
}

func newKind(kind Kind, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Message: msg, cause: errors.New(msg)}
}

func NotFound(format string, args ...any) *Error {
	return newKind(KindNotFound, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newKind(KindUnauthorized, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newKind(KindValidation, format, args...)
}

// Internal wraps an unexpected failure; the message is what clients see.
func Internal(err error, message string) *Error {
	return &Error{Kind: KindUnhandled, Message: message, cause: errors.WithStack(err)}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnhandled.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnhandled
}

// Status maps err to the HTTP status code of its kind.
func Status(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
