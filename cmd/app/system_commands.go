package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/KiritoEM/safeo-api/cmd/app/commands"
	"github.com/KiritoEM/safeo-api/internal/app"
	"github.com/KiritoEM/safeo-api/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server and the payload cleanup worker",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply pending database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "migrate-down",
			Usage: "Roll back the most recent database migrations",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "steps",
					Aliases: []string{"n"},
					Value:   1,
					Usage:   "Number of migrations to roll back",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RollbackMigrations(
					container.Logger(),
					cfg.DBDriver,
					cfg.DBConnectionString,
					int(cmd.Int("steps")),
				)
			},
		},
		{
			Name:  "process-cleanup",
			Usage: "Delete the stored payloads of removed documents that are still queued",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				processor, err := container.OutboxUseCase()
				if err != nil {
					return err
				}
				return commands.RunProcessCleanup(ctx, processor, container.Logger())
			},
		},
	}
}
