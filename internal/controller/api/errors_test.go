package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jthickma/webapp/internal/core/errs"
)

func TestStatusFor(t *testing.T) {
	tests := map[errs.Kind]int{
		errs.KindInvalidURL:        http.StatusBadRequest,
		errs.KindUnsupportedDomain: http.StatusBadRequest,
		errs.KindInvalidFileType:   http.StatusBadRequest,
		errs.KindForbidden:         http.StatusForbidden,
		errs.KindNotFound:          http.StatusNotFound,
		errs.KindTooLarge:          http.StatusRequestEntityTooLarge,
		errs.KindCapacityExceeded:  http.StatusTooManyRequests,
		errs.KindRateLimited:       http.StatusTooManyRequests,
		errs.KindTimedOut:          http.StatusGatewayTimeout,
		errs.KindToolFailed:        http.StatusInternalServerError,
		errs.KindToolNotInstalled:  http.StatusInternalServerError,
		errs.KindEmptyResult:       http.StatusInternalServerError,
		errs.KindDirectoryCreate:   http.StatusInternalServerError,
		errs.KindAccess:            http.StatusInternalServerError,
		errs.KindUnexpected:        http.StatusInternalServerError,
	}
	for kind, status := range tests {
		assert.Equal(t, status, StatusFor(kind), kind)
	}
}

func TestErrorHandlerHidesUnexpectedDetail(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/download", nil), rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "rid-1")

	ErrorHandler(errors.New("open /secret/path: permission denied"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrorBody{Error: "An unexpected error occurred", RequestID: "rid-1"}, body)
}

func TestErrorHandlerEchoErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/nope", nil), rec)

	ErrorHandler(echo.ErrNotFound, c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}
