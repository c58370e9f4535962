package handlers

import (
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/jthickma/webapp/internal/core/errs"
	"github.com/jthickma/webapp/internal/core/service"
)

type FilesHandler struct {
	svc *service.FileService
}

func NewFilesHandler(svc *service.FileService) *FilesHandler {
	return &FilesHandler{svc: svc}
}

// Serve streams /downloads/:dir_id/:filename as an attachment.
func (h *FilesHandler) Serve(c echo.Context) error {
	token, err := pathParam(c, "dir_id")
	if err != nil {
		return err
	}
	name, err := pathParam(c, "filename")
	if err != nil {
		return err
	}
	return h.svc.Serve(c.Response(), c.Request(), token, name, RequestID(c))
}

// pathParam returns a route param decoded exactly once. echo matches on
// URL.RawPath when it is set and leaves params escaped, otherwise it matches
// on the already decoded URL.Path.
func pathParam(c echo.Context, name string) (string, error) {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v, nil
	}
	v, err := url.PathUnescape(v)
	if err != nil {
		return "", errs.Wrap(errs.KindInvalidRequest, "Invalid request", err)
	}
	return v, nil
}
