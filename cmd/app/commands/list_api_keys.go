package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
)

// RunListAPIKeys prints every API key with its secret redacted to a preview.
// Revoked keys are included for audit visibility. Outputs in either text or
// JSON format.
func RunListAPIKeys(
	ctx context.Context,
	apiKeyUseCase securityUseCase.APIKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := apiKeyUseCase.Init(ctx); err != nil {
		return fmt.Errorf("failed to load credential store: %w", err)
	}

	records, err := apiKeyUseCase.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list api keys: %w", err)
	}

	if format == "json" {
		return writeJSON(records, writer)
	}

	if len(records) == 0 {
		_, _ = fmt.Fprintln(writer, "No API keys found.")
		return nil
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KEY\tUSERNAME\tROLE\tACTIVE\tCREATED\tLAST USED\tDESCRIPTION")
	for _, record := range records {
		lastUsed := "never"
		if record.LastUsedAt != nil {
			lastUsed = record.LastUsedAt.Format("2006-01-02 15:04:05")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\t%s\n",
			record.Preview,
			record.Username,
			record.Role,
			record.IsActive,
			record.CreatedAt.Format("2006-01-02 15:04:05"),
			lastUsed,
			record.Description,
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	logger.Debug("listed api keys", slog.Int("count", len(records)))

	return nil
}
