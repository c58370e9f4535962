package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/jthickma/webapp/internal/config"
	"github.com/jthickma/webapp/internal/controller/api"
	"github.com/jthickma/webapp/internal/controller/web"
	"github.com/jthickma/webapp/internal/core/admission"
	"github.com/jthickma/webapp/internal/core/enginesetup"
	"github.com/jthickma/webapp/internal/core/event"
	"github.com/jthickma/webapp/internal/core/fileserver"
	"github.com/jthickma/webapp/internal/core/job"
	"github.com/jthickma/webapp/internal/core/metrics"
	"github.com/jthickma/webapp/internal/core/process"
	"github.com/jthickma/webapp/internal/core/service"
	"github.com/jthickma/webapp/internal/core/storage"
	"github.com/jthickma/webapp/internal/core/sweep"
)

const shutdownTimeout = 10 * time.Second

// Server is the assembled broker: the echo instance and the background pieces
// that share its lifetime.
type Server struct {
	Echo    *echo.Echo
	Store   *storage.LocalProvider
	Sweeper *sweep.Sweeper
	ProcMgr *process.Manager

	cfg *config.Config
}

// New wires every component from cfg. The download root is created if needed.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	store, err := storage.NewLocalProvider(cfg.Download.Root)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureRoot(); err != nil {
		return nil, err
	}

	bus := event.NewBus()
	engines := enginesetup.InitEngines(ctx, enginesetup.ConfigFromAppConfig(cfg))
	admit := admission.NewController(store, cfg.Download.MaxConcurrent)

	executor := job.NewExecutor(store, engines.Runner, job.Config{
		MaxFileSize: cfg.Download.MaxFileSize,
		Timeout:     cfg.Download.Timeout,
		StderrLimit: cfg.Download.StderrLimit,
		KeepFailed:  cfg.Download.KeepFailed,
	})
	downloadSvc := service.NewDownloadService(engines.Dispatcher, admit, executor, bus)
	fileSvc := service.NewFileService(fileserver.NewGateway(store, cfg.Download.MaxFileSize), bus)

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		collector := metrics.New(admit.Active)
		collector.Subscribe(bus)
		metricsHandler = collector.Handler()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	limits := api.SetupRouter(e, api.RouterConfig{
		Downloads:  downloadSvc,
		Files:      fileSvc,
		Dispatcher: engines.Dispatcher,
		Admission:  admit,
		Store:      store,
		RateLimit:  cfg.RateLimit,
		Metrics:    metricsHandler,
	})

	webHandler := web.NewHandler(engines.Dispatcher, cfg.Download.MaxFileSize)
	webHandler.RegisterRoutes(e, limits.Default)

	return &Server{
		Echo:    e,
		Store:   store,
		Sweeper: sweep.New(store, bus, cfg.Download.Retention),
		ProcMgr: engines.ProcMgr,
		cfg:     cfg,
	}, nil
}

// Run serves HTTP until SIGINT/SIGTERM or ctx cancellation, then shuts down
// and kills any download tool still running.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	if n, err := srv.Sweeper.RunOnce(ctx, time.Now()); err != nil {
		log.Warn().Err(err).Msg("startup sweep failed")
	} else if n > 0 {
		log.Info().Int("removed", n).Msg("startup sweep removed expired directories")
	}
	go srv.Sweeper.Run(ctx, cfg.Download.SweepInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("download_root", srv.Store.Root()).
			Int("max_concurrent", cfg.Download.MaxConcurrent).
			Msg("HTTP server listening")
		if err := srv.Echo.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Echo.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := srv.ProcMgr.StopAll(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("stop download tools")
	}
	return nil
}
