package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/jthickma/webapp/internal/core/storage"
	"github.com/jthickma/webapp/internal/core/sweep"
)

func sweepCmd() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Remove job directories older than the retention period and exit",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "retention",
				Usage: "Override download.retention",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			retention := cfg.Download.Retention
			if v := cmd.Duration("retention"); v > 0 {
				retention = v
			}

			store, err := storage.NewLocalProvider(cfg.Download.Root)
			if err != nil {
				return err
			}
			removed, err := sweep.New(store, nil, retention).RunOnce(ctx, time.Now())
			if err != nil {
				return fmt.Errorf("sweep %s: %w", store.Root(), err)
			}
			log.Info().Int("removed", removed).Str("root", store.Root()).Dur("retention", retention).Msg("sweep complete")
			return nil
		},
	}
}
