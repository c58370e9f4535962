package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countInput struct {
	N int `query:"n" minimum:"1"`
}

func TestHumaErrorsCarryRequestID(t *testing.T) {
	InitErrors()
	e := echo.New()
	e.Use(echomw.RequestID())
	api := humaecho.New(e, huma.DefaultConfig("test", "1.0.0"))
	huma.Register(api, huma.Operation{
		OperationID: "count",
		Method:      http.MethodGet,
		Path:        "/count",
	}, func(ctx context.Context, in *countInput) (*DataOutput[int], error) {
		return OK(in.N), nil
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/count?n=0", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Err, "validation failed")
	require.NotEmpty(t, body.RequestID)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), body.RequestID)
}

func TestHumaRequestIDForeignContext(t *testing.T) {
	assert.Equal(t, "", humaRequestID(nil))
}
