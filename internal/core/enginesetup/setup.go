// Package enginesetup wires the downloader implementations (yt-dlp,
// gallery-dl) into a ready Dispatcher and process Manager. It sits above the
// engine interface package and its implementations so it can import both
// without a cycle.
package enginesetup

import (
	"context"
	"os/exec"

	"github.com/rs/zerolog/log"

	appconfig "github.com/jthickma/webapp/internal/config"
	"github.com/jthickma/webapp/internal/core/engine"
	"github.com/jthickma/webapp/internal/core/engine/gallerydl"
	"github.com/jthickma/webapp/internal/core/engine/ytdlp"
	"github.com/jthickma/webapp/internal/core/process"
)

// Config is the input for InitEngines.
type Config struct {
	YtDlpBinary     string
	GalleryDlBinary string
}

// ConfigFromAppConfig builds an engine Config from the application configuration.
func ConfigFromAppConfig(cfg *appconfig.Config) Config {
	return Config{
		YtDlpBinary:     cfg.Tools.YtDlp,
		GalleryDlBinary: cfg.Tools.GalleryDl,
	}
}

// Result holds the outputs of InitEngines.
type Result struct {
	Dispatcher *engine.Dispatcher
	ProcMgr    *process.Manager
	Runner     *process.Runner
}

// DefaultFamilies is the host table in match order.
func DefaultFamilies(cfg Config) []engine.Family {
	yt := ytdlp.New(cfg.YtDlpBinary)
	gdl := gallerydl.New(cfg.GalleryDlBinary)
	return []engine.Family{
		{Name: "youtube", Domains: []string{"youtube.com", "youtu.be"}, Tool: yt},
		{Name: "instagram", Domains: []string{"instagram.com"}, Tool: gdl},
		{Name: "tiktok", Domains: []string{"tiktok.com"}, Tool: gdl},
	}
}

// InitEngines builds the Dispatcher and the process Manager that tracks the
// children it starts. Tools are always registered; a binary missing from PATH
// only produces a warning, and requests for it fail with "not installed".
func InitEngines(ctx context.Context, cfg Config) *Result {
	dispatcher := engine.NewDispatcher(DefaultFamilies(cfg)...)
	procMgr := process.NewManager()

	for _, tool := range dispatcher.Tools() {
		if _, err := exec.LookPath(tool.Binary()); err != nil {
			log.Warn().Str("tool", tool.Name()).Str("binary", tool.Binary()).Msg("download tool not found in PATH")
			continue
		}
		status := tool.Health(ctx)
		if !status.OK {
			log.Warn().Str("tool", tool.Name()).Str("error", status.Message).Msg("download tool health check failed")
			continue
		}
		log.Info().Str("tool", tool.Name()).Str("version", status.Message).Msg("download tool registered")
	}

	return &Result{
		Dispatcher: dispatcher,
		ProcMgr:    procMgr,
		Runner:     process.NewRunner(procMgr, 0),
	}
}
