package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/jthickma/webapp/internal/controller/api/handlers"
	"github.com/jthickma/webapp/internal/core/errs"
)

type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindInvalidURL, errs.KindUnsupportedDomain, errs.KindInvalidRequest, errs.KindInvalidFileType:
		return http.StatusBadRequest
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case errs.KindCapacityExceeded, errs.KindRateLimited:
		return http.StatusTooManyRequests
	case errs.KindTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler is the only place errors become responses. Classified errors
// keep their client message; anything else is logged in full and reported
// with a generic one.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	requestID := handlers.RequestID(c)
	status, msg := resolve(err)

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("request_id", requestID).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Int("status", status).
		Msg("request failed")

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorBody{Error: msg, RequestID: requestID})
	}
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("write error response")
	}
}

func resolve(err error) (int, string) {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return StatusFor(appErr.Kind), errs.Message(appErr)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError || he.Message == nil {
			return he.Code, http.StatusText(he.Code)
		}
		return he.Code, fmt.Sprint(he.Message)
	}
	return http.StatusInternalServerError, errs.Message(err)
}
