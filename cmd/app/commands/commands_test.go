package commands

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	securityRepository "github.com/stellation/cloudview/internal/security/repository"
	securityService "github.com/stellation/cloudview/internal/security/service"
	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
)

// commandFixture wires real use cases over in-memory storage so command
// behavior is exercised end to end.
type commandFixture struct {
	apiKeys securityUseCase.APIKeyUseCase
	session securityUseCase.SessionUseCase
	logger  *slog.Logger
}

func newCommandFixture(t *testing.T) *commandFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := securityRepository.NewMemoryCredentialRepository()
	secretService := securityService.NewSecretService()
	events := securityService.NewEventLog(securityService.NewSlogSink(logger))
	lockout := securityService.NewLockoutTracker(5, 15*time.Minute, events)

	apiKeys := securityUseCase.NewAPIKeyUseCase(repo, secretService, lockout, events, logger, time.Second)

	tokenService, err := securityService.NewSessionTokenService("test-signing-secret", logger)
	require.NoError(t, err)

	return &commandFixture{
		apiKeys: apiKeys,
		session: securityUseCase.NewSessionUseCase(apiKeys, tokenService, time.Hour),
		logger:  logger,
	}
}

// createKey provisions a key directly through the use case so tests can hold
// the plain secret without scraping command output.
func (f *commandFixture) createKey(t *testing.T, username string, role securityDomain.Role) string {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, f.apiKeys.Init(ctx))

	output, err := f.apiKeys.Create(ctx, &securityDomain.CreateAPIKeyInput{
		Username: username,
		Role:     role,
	})
	require.NoError(t, err)

	return output.PlainSecret
}
