package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/stellation/cloudview/cmd/app/commands"
	"github.com/stellation/cloudview/internal/app"
	"github.com/stellation/cloudview/internal/config"
)

func getAPIKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-api-key",
			Usage: "Create a new API key and print its secret once",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Username the key authenticates as",
				},
				&cli.StringFlag{
					Name:     "role",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Role granted to the key (viewer, operator or admin)",
				},
				&cli.StringFlag{
					Name:    "description",
					Aliases: []string{"d"},
					Value:   "",
					Usage:   "Free-form description of the key's purpose",
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

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateAPIKey(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("username"),
					cmd.String("role"),
					cmd.String("description"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-api-keys",
			Usage: "List all API keys with redacted secrets",
			Flags: []cli.Flag{
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

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunListAPIKeys(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke-api-key",
			Usage: "Revoke an API key so it can no longer authenticate",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "secret",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "The full API key secret to revoke",
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

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevokeAPIKey(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("secret"),
					cmd.String("format"),
				)
			},
		},
	}
}
