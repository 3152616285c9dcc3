package usecase

import (
	"context"
	"time"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	securityService "github.com/stellation/cloudview/internal/security/service"
)

// sessionUseCase implements SessionUseCase on top of the API-key manager and
// the token signer.
type sessionUseCase struct {
	apiKeys      APIKeyUseCase
	tokenService securityService.SessionTokenService
	defaultTTL   time.Duration
}

// IssueToken exchanges a valid API key for a signed session token. A zero ttl
// falls back to the configured default.
func (s *sessionUseCase) IssueToken(
	ctx context.Context,
	presentedSecret string,
	ttl time.Duration,
) (*IssueTokenOutput, error) {
	principal, err := s.apiKeys.Validate(ctx, presentedSecret)
	if err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	token, err := s.tokenService.Issue(principal, ttl)
	if err != nil {
		return nil, err
	}

	return &IssueTokenOutput{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(ttl),
		Principal: principal,
	}, nil
}

// Authenticate verifies a session token and rebuilds its principal.
func (s *sessionUseCase) Authenticate(
	ctx context.Context,
	token string,
) (*securityDomain.Principal, error) {
	claims, err := s.tokenService.Verify(token)
	if err != nil {
		return nil, err
	}
	return claims.Principal(), nil
}

// NewSessionUseCase creates a SessionUseCase with the provided dependencies.
func NewSessionUseCase(
	apiKeys APIKeyUseCase,
	tokenService securityService.SessionTokenService,
	defaultTTL time.Duration,
) SessionUseCase {
	return &sessionUseCase{
		apiKeys:      apiKeys,
		tokenService: tokenService,
		defaultTTL:   defaultTTL,
	}
}
