package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jthickma/webapp/internal/core/service"
)

type DownloadsHandler struct {
	svc *service.DownloadService
}

func NewDownloadsHandler(svc *service.DownloadService) *DownloadsHandler {
	return &DownloadsHandler{svc: svc}
}

type DownloadResponse struct {
	Message string   `json:"message"`
	Files   []string `json:"files"`
	DirID   string   `json:"dir_id"`
}

// Create runs a download for the "url" form field and waits for it to finish.
// The job is tied to the request context; a client that disconnects kills the
// tool.
func (h *DownloadsHandler) Create(c echo.Context) error {
	resp, err := h.svc.Download(c.Request().Context(), service.DownloadRequest{
		URL:       c.FormValue("url"),
		RequestID: RequestID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DownloadResponse{
		Message: "Download successful",
		Files:   resp.Files,
		DirID:   resp.Token,
	})
}

// RequestID returns the id assigned by the RequestID middleware.
func RequestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
