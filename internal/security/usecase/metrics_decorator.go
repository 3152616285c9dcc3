package usecase

import (
	"context"
	"time"

	"github.com/stellation/cloudview/internal/metrics"
	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// apiKeyUseCaseWithMetrics decorates APIKeyUseCase with metrics instrumentation.
type apiKeyUseCaseWithMetrics struct {
	next    APIKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewAPIKeyUseCaseWithMetrics wraps an APIKeyUseCase with metrics recording.
func NewAPIKeyUseCaseWithMetrics(useCase APIKeyUseCase, m metrics.BusinessMetrics) APIKeyUseCase {
	return &apiKeyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Init records metrics for credential store initialization.
func (a *apiKeyUseCaseWithMetrics) Init(ctx context.Context) error {
	start := time.Now()
	err := a.next.Init(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "security", "store_init", status)
	a.metrics.RecordDuration(ctx, "security", "store_init", time.Since(start), status)

	return err
}

// Create records metrics for API key creation operations.
func (a *apiKeyUseCaseWithMetrics) Create(
	ctx context.Context,
	createInput *securityDomain.CreateAPIKeyInput,
) (*securityDomain.CreateAPIKeyOutput, error) {
	start := time.Now()
	output, err := a.next.Create(ctx, createInput)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "security", "api_key_create", status)
	a.metrics.RecordDuration(ctx, "security", "api_key_create", time.Since(start), status)

	return output, err
}

// Validate records metrics for API key validation operations.
func (a *apiKeyUseCaseWithMetrics) Validate(
	ctx context.Context,
	presentedSecret string,
) (*securityDomain.Principal, error) {
	start := time.Now()
	principal, err := a.next.Validate(ctx, presentedSecret)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "security", "api_key_validate", status)
	a.metrics.RecordDuration(ctx, "security", "api_key_validate", time.Since(start), status)

	return principal, err
}

// Revoke records metrics for API key revocation operations.
func (a *apiKeyUseCaseWithMetrics) Revoke(ctx context.Context, presentedSecret string) (bool, error) {
	start := time.Now()
	existed, err := a.next.Revoke(ctx, presentedSecret)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "security", "api_key_revoke", status)
	a.metrics.RecordDuration(ctx, "security", "api_key_revoke", time.Since(start), status)

	return existed, err
}

// List records metrics for API key list operations.
func (a *apiKeyUseCaseWithMetrics) List(ctx context.Context) ([]*securityDomain.RedactedAPIKey, error) {
	start := time.Now()
	records, err := a.next.List(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "security", "api_key_list", status)
	a.metrics.RecordDuration(ctx, "security", "api_key_list", time.Since(start), status)

	return records, err
}

// Close forwards the shutdown drain without recording metrics.
func (a *apiKeyUseCaseWithMetrics) Close(ctx context.Context) error {
	return a.next.Close(ctx)
}

// sessionUseCaseWithMetrics decorates SessionUseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    SessionUseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a SessionUseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase SessionUseCase, m metrics.BusinessMetrics) SessionUseCase {
	return &sessionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// IssueToken records metrics for session token issuance operations.
func (s *sessionUseCaseWithMetrics) IssueToken(
	ctx context.Context,
	presentedSecret string,
	ttl time.Duration,
) (*IssueTokenOutput, error) {
	start := time.Now()
	output, err := s.next.IssueToken(ctx, presentedSecret, ttl)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "security", "token_issue", status)
	s.metrics.RecordDuration(ctx, "security", "token_issue", time.Since(start), status)

	return output, err
}

// Authenticate records metrics for session token authentication operations.
func (s *sessionUseCaseWithMetrics) Authenticate(
	ctx context.Context,
	token string,
) (*securityDomain.Principal, error) {
	start := time.Now()
	principal, err := s.next.Authenticate(ctx, token)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "security", "token_authenticate", status)
	s.metrics.RecordDuration(ctx, "security", "token_authenticate", time.Since(start), status)

	return principal, err
}
