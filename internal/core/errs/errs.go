// Package errs defines the error kinds shared by the download pipeline and the
// file gateway. Components return *Error values; the HTTP layer is the only
// place that turns a Kind into a status code.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidURL        Kind = "invalid_url"
	KindUnsupportedDomain Kind = "unsupported_domain"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindRateLimited       Kind = "rate_limited"
	KindDirectoryCreate   Kind = "directory_create_error"
	KindToolNotInstalled  Kind = "tool_not_installed"
	KindToolFailed        Kind = "tool_execution_failed"
	KindTimedOut          Kind = "timed_out"
	KindEmptyResult       Kind = "empty_result"
	KindInvalidRequest    Kind = "invalid_request"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidFileType   Kind = "invalid_file_type"
	KindTooLarge          Kind = "too_large"
	KindAccess            Kind = "access_error"
	KindUnexpected        Kind = "unexpected_error"
)

// Error is a classified failure. Message is safe to show to clients; Err holds
// the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindUnexpected when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Message returns the client-facing message for err. Unclassified errors never
// leak their text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnexpected {
		return e.Message
	}
	return "An unexpected error occurred"
}
