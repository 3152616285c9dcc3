package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
)

// RunIssueToken exchanges an API key for a signed session token.
// A zero TTL uses the configured default lifetime. Outputs in either text or
// JSON format.
func RunIssueToken(
	ctx context.Context,
	apiKeyUseCase securityUseCase.APIKeyUseCase,
	sessionUseCase securityUseCase.SessionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	presentedSecret string,
	ttl time.Duration,
	format string,
) error {
	if err := apiKeyUseCase.Init(ctx); err != nil {
		return fmt.Errorf("failed to load credential store: %w", err)
	}

	output, err := sessionUseCase.IssueToken(ctx, presentedSecret, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	if format == "json" {
		result := map[string]string{
			"token":     output.Token,
			"expiresAt": output.ExpiresAt.Format(time.RFC3339),
			"username":  output.Principal.Username,
			"role":      string(output.Principal.Role),
		}
		if err := writeJSON(result, writer); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Token: %s\n", output.Token)
		_, _ = fmt.Fprintf(writer, "Expires: %s\n", output.ExpiresAt.Format(time.RFC3339))
		_, _ = fmt.Fprintf(writer, "Principal: %s (%s)\n", output.Principal.Username, output.Principal.Role)
	}

	logger.Info("session token issued",
		slog.String("username", output.Principal.Username),
		slog.Time("expires_at", output.ExpiresAt),
	)

	return nil
}
