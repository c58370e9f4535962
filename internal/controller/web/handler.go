package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jthickma/webapp/internal/core/engine"
)

//go:embed templates
var templateFS embed.FS

type Handler struct {
	templates  *template.Template
	dispatcher *engine.Dispatcher
	maxSize    int64
}

func NewHandler(dispatcher *engine.Dispatcher, maxFileSize int64) *Handler {
	tmpl := template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
	return &Handler{
		templates:  tmpl,
		dispatcher: dispatcher,
		maxSize:    maxFileSize,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, m ...echo.MiddlewareFunc) {
	e.GET("/", h.indexPage, m...)
}

type site struct {
	Family  string
	Domains []string
	Tool    string
}

type pageData struct {
	Title     string
	Sites     []site
	MaxSizeMB int64
}

func (h *Handler) indexPage(c echo.Context) error {
	data := pageData{
		Title:     "Media Downloader",
		MaxSizeMB: h.maxSize / (1024 * 1024),
	}
	for _, f := range h.dispatcher.Families() {
		data.Sites = append(data.Sites, site{Family: f.Name, Domains: f.Domains, Tool: f.Tool.Name()})
	}
	return h.render(c, http.StatusOK, "index.html", data)
}

func (h *Handler) render(c echo.Context, status int, name string, data any) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return h.templates.ExecuteTemplate(c.Response(), name, data)
}
