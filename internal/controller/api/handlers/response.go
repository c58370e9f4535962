package handlers

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"
)

// APIError is the error body for operations served through huma. It matches
// the {error, request_id} shape of the echo error handler.
type APIError struct {
	status    int
	Err       string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string  { return e.Err }
func (e *APIError) GetStatus() int { return e.status }

// InitErrors overrides huma's default error factories so all error responses
// use the unified {error, request_id} format.
func InitErrors() {
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return &APIError{status: status, Err: joinErrors(msg, errs)}
	}
	huma.NewErrorWithContext = func(ctx huma.Context, status int, msg string, errs ...error) huma.StatusError {
		return &APIError{status: status, Err: joinErrors(msg, errs), RequestID: humaRequestID(ctx)}
	}
}

func joinErrors(msg string, errs []error) string {
	if len(errs) == 0 {
		return msg
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return msg + ": " + strings.Join(parts, "; ")
}

// humaRequestID reads the id from the wrapped echo context. humaecho.Unwrap
// panics on foreign contexts, so the assertion is done here.
func humaRequestID(ctx huma.Context) string {
	if u, ok := ctx.(interface{ Unwrap() echo.Context }); ok {
		return RequestID(u.Unwrap())
	}
	return ""
}

type EmptyInput struct{}

// DataOutput is the huma output wrapper for JSON bodies.
type DataOutput[T any] struct {
	Body T
}

func OK[T any](data T) *DataOutput[T] {
	return &DataOutput[T]{Body: data}
}
