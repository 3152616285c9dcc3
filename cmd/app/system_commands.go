package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/stellation/cloudview/cmd/app/commands"
	"github.com/stellation/cloudview/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "reset-key-store",
			Usage: "Discard the encryption key and the credential store",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "confirm",
					Aliases: []string{"y"},
					Value:   false,
					Usage:   "Skip the interactive confirmation prompt",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				return commands.RunResetKeyStore(
					cfg.StorageDir,
					cmd.Bool("confirm"),
					commands.DefaultIO(),
				)
			},
		},
	}
}
