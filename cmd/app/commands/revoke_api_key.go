package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
)

// RunRevokeAPIKey deactivates the key matching the presented secret.
// The record is kept in listings for audit visibility. Reports whether a
// matching key existed. Outputs in either text or JSON format.
func RunRevokeAPIKey(
	ctx context.Context,
	apiKeyUseCase securityUseCase.APIKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	presentedSecret string,
	format string,
) error {
	if err := apiKeyUseCase.Init(ctx); err != nil {
		return fmt.Errorf("failed to load credential store: %w", err)
	}

	revoked, err := apiKeyUseCase.Revoke(ctx, presentedSecret)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	if format == "json" {
		return writeJSON(map[string]bool{"revoked": revoked}, writer)
	}

	if revoked {
		_, _ = fmt.Fprintln(writer, "API key revoked.")
	} else {
		_, _ = fmt.Fprintln(writer, "No matching API key found.")
	}

	logger.Info("api key revocation requested", slog.Bool("revoked", revoked))

	return nil
}
