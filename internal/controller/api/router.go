package api

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jthickma/webapp/internal/config"
	"github.com/jthickma/webapp/internal/controller/api/handlers"
	"github.com/jthickma/webapp/internal/core/admission"
	"github.com/jthickma/webapp/internal/core/engine"
	"github.com/jthickma/webapp/internal/core/errs"
	"github.com/jthickma/webapp/internal/core/service"
	"github.com/jthickma/webapp/internal/core/storage"
)

type RouterConfig struct {
	Downloads  *service.DownloadService
	Files      *service.FileService
	Dispatcher *engine.Dispatcher
	Admission  *admission.Controller
	Store      *storage.LocalProvider
	RateLimit  config.RateLimitConfig
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Limits holds the per-route rate limiters. Page routes registered outside
// this package share Default.
type Limits struct {
	Download echo.MiddlewareFunc
	Files    echo.MiddlewareFunc
	Default  echo.MiddlewareFunc
}

func SetupRouter(e *echo.Echo, cfg RouterConfig) *Limits {
	e.HTTPErrorHandler = ErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())

	limits := &Limits{
		Download: rateLimit(cfg.RateLimit.DownloadPerMinute, time.Minute),
		Files:    rateLimit(cfg.RateLimit.FilesPerMinute, time.Minute),
		Default:  rateLimit(cfg.RateLimit.DefaultPerHour, time.Hour),
	}

	downloadsHandler := handlers.NewDownloadsHandler(cfg.Downloads)
	e.POST("/download", downloadsHandler.Create, limits.Download)

	filesHandler := handlers.NewFilesHandler(cfg.Files)
	e.GET("/downloads/:dir_id/:filename", filesHandler.Serve, limits.Files)

	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics))
	}

	handlers.InitErrors()
	v1 := e.Group("/api/v1", limits.Default)
	humaConfig := huma.DefaultConfig("Media Download Broker API", "1.0.0")
	humaConfig.Servers = []*huma.Server{{URL: "/api/v1"}}
	humaConfig.Info.Description = "Fetch media with yt-dlp and gallery-dl and serve the results"
	api := humaecho.NewWithGroup(e, v1, humaConfig)

	healthHandler := handlers.NewHealthHandler(cfg.Dispatcher, cfg.Admission, cfg.Store)
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Tool availability, active jobs and disk usage",
		Tags:        []string{"System"},
	}, healthHandler.Get)

	return limits
}

// rateLimit allows n requests per window per client IP. n <= 0 disables it.
func rateLimit(n int, window time.Duration) echo.MiddlewareFunc {
	if n <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(n) / window.Seconds()),
		Burst:     n,
		ExpiresIn: window,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errs.Wrap(errs.KindForbidden, "Access denied", err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return errs.New(errs.KindRateLimited, "Rate limit exceeded. Please try again later.")
		},
	})
}

func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
