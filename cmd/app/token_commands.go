package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/stellation/cloudview/cmd/app/commands"
	"github.com/stellation/cloudview/internal/app"
	"github.com/stellation/cloudview/internal/config"
)

func getTokenCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "issue-token",
			Usage: "Exchange an API key for a signed session token",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "secret",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "The full API key secret to exchange",
				},
				&cli.DurationFlag{
					Name:    "ttl",
					Aliases: []string{"t"},
					Value:   0,
					Usage:   "Token lifetime (e.g., 30m, 2h); zero uses the configured default",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				sessionUseCase, err := container.SessionUseCase()
				if err != nil {
					return err
				}

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunIssueToken(
					ctx,
					apiKeyUseCase,
					sessionUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("secret"),
					cmd.Duration("ttl"),
					cmd.String("format"),
				)
			},
		},
	}
}
