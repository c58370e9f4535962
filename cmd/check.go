package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jthickma/webapp/internal/core/engine"
	"github.com/jthickma/webapp/internal/core/enginesetup"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Report whether the download tools are installed",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			dispatcher := engine.NewDispatcher(enginesetup.DefaultFamilies(enginesetup.ConfigFromAppConfig(cfg))...)
			missing := 0
			for _, tool := range dispatcher.Tools() {
				status := tool.Health(ctx)
				state := "ok"
				if !status.OK {
					state = "MISSING"
					missing++
				}
				fmt.Fprintf(cmd.Root().Writer, "%-12s %-8s %s\n", tool.Name(), state, status.Message)
			}
			if missing > 0 {
				return fmt.Errorf("%d download tool(s) unavailable", missing)
			}
			return nil
		},
	}
}
