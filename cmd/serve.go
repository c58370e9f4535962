package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jthickma/webapp/internal/controller"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen address",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if v := cmd.String("host"); v != "" {
				cfg.Server.Host = v
			}
			if v := cmd.Int("port"); v > 0 {
				cfg.Server.Port = int(v)
			}
			return controller.Run(ctx, cfg)
		},
	}
}
