package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/jthickma/webapp/internal/config"
)

var version = "dev"

func App() *cli.Command {
	return &cli.Command{
		Name:    "webapp",
		Version: version,
		Usage:   "Download media from supported sites with yt-dlp and gallery-dl and serve the files over HTTP.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML config file",
				Sources: cli.EnvVars("MD_CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (pretty, json)",
			},
			&cli.StringFlag{
				Name:  "download-root",
				Usage: "Directory job directories are created in; must be inside download.allowed_root",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			sweepCmd(),
			checkCmd(),
		},
	}
}

// loadConfig reads the configuration with the global flags as overrides and
// applies the logging settings.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	overrides := map[string]any{}
	for flag, key := range map[string]string{
		"log-level":     "logging.level",
		"log-format":    "logging.format",
		"download-root": "download.root",
	} {
		if v := cmd.String(flag); v != "" {
			overrides[key] = v
		}
	}

	cfg, err := config.Load(cmd.String("config"), overrides)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.Logging)
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig) {
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Str("level", level.String()).Msg("log level configured")
}
