package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
)

// RunCreateAPIKey creates a new API key and prints the plain secret.
// The secret is shown exactly once: only its salted hash is persisted, so it
// cannot be recovered later. Outputs in either text or JSON format.
func RunCreateAPIKey(
	ctx context.Context,
	apiKeyUseCase securityUseCase.APIKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	username string,
	roleName string,
	description string,
	format string,
) error {
	role, err := securityDomain.ParseRole(roleName)
	if err != nil {
		return fmt.Errorf("invalid role %q (valid options: viewer, operator, admin)", roleName)
	}

	if err := apiKeyUseCase.Init(ctx); err != nil {
		return fmt.Errorf("failed to load credential store: %w", err)
	}

	output, err := apiKeyUseCase.Create(ctx, &securityDomain.CreateAPIKeyInput{
		Username:    username,
		Role:        role,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	if format == "json" {
		result := map[string]string{
			"apiKey":     output.PlainSecret,
			"keyPreview": output.Record.Preview,
			"username":   output.Record.Username,
			"role":       string(output.Record.Role),
		}
		if err := writeJSON(result, writer); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(writer, "\nAPI key created successfully!")
		_, _ = fmt.Fprintf(writer, "Username: %s\n", output.Record.Username)
		_, _ = fmt.Fprintf(writer, "Role: %s\n", output.Record.Role)
		_, _ = fmt.Fprintf(writer, "API key: %s\n", output.PlainSecret)
		_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The key is shown only once. Store it securely.")
	}

	logger.Info("api key created",
		slog.String("username", username),
		slog.String("role", string(role)),
		slog.String("key_preview", output.Record.Preview),
	)

	return nil
}
