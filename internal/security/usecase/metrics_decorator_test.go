package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

// mockAPIKeyUseCase is a mock implementation of APIKeyUseCase.
type mockAPIKeyUseCase struct {
	mock.Mock
}

func (m *mockAPIKeyUseCase) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockAPIKeyUseCase) Create(
	ctx context.Context,
	createInput *securityDomain.CreateAPIKeyInput,
) (*securityDomain.CreateAPIKeyOutput, error) {
	args := m.Called(ctx, createInput)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*securityDomain.CreateAPIKeyOutput), args.Error(1)
}

func (m *mockAPIKeyUseCase) Validate(ctx context.Context, presentedSecret string) (*securityDomain.Principal, error) {
	args := m.Called(ctx, presentedSecret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*securityDomain.Principal), args.Error(1)
}

func (m *mockAPIKeyUseCase) Revoke(ctx context.Context, presentedSecret string) (bool, error) {
	args := m.Called(ctx, presentedSecret)
	return args.Bool(0), args.Error(1)
}

func (m *mockAPIKeyUseCase) List(ctx context.Context) ([]*securityDomain.RedactedAPIKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*securityDomain.RedactedAPIKey), args.Error(1)
}

func (m *mockAPIKeyUseCase) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestAPIKeyUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Validate success", func(t *testing.T) {
		mockNext := &mockAPIKeyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := NewAPIKeyUseCaseWithMetrics(mockNext, mockMetrics)

		principal := securityDomain.NewPrincipal("alice", securityDomain.RoleViewer)
		mockNext.On("Validate", ctx, "secret").Return(principal, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "security", "api_key_validate", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "security", "api_key_validate", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		res, err := uc.Validate(ctx, "secret")
		assert.NoError(t, err)
		assert.Equal(t, principal, res)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Validate error", func(t *testing.T) {
		mockNext := &mockAPIKeyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := NewAPIKeyUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("Validate", ctx, "secret").Return(nil, securityDomain.ErrInvalidCredentials).Once()
		mockMetrics.On("RecordOperation", ctx, "security", "api_key_validate", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "security", "api_key_validate", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		res, err := uc.Validate(ctx, "secret")
		assert.ErrorIs(t, err, securityDomain.ErrInvalidCredentials)
		assert.Nil(t, res)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Create success", func(t *testing.T) {
		mockNext := &mockAPIKeyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := NewAPIKeyUseCaseWithMetrics(mockNext, mockMetrics)

		input := &securityDomain.CreateAPIKeyInput{Username: "alice", Role: securityDomain.RoleViewer}
		output := &securityDomain.CreateAPIKeyOutput{PlainSecret: "sk_secret"}
		mockNext.On("Create", ctx, input).Return(output, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "security", "api_key_create", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "security", "api_key_create", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		res, err := uc.Create(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, output, res)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Revoke success", func(t *testing.T) {
		mockNext := &mockAPIKeyUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := NewAPIKeyUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("Revoke", ctx, "secret").Return(true, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "security", "api_key_revoke", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "security", "api_key_revoke", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		existed, err := uc.Revoke(ctx, "secret")
		assert.NoError(t, err)
		assert.True(t, existed)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}
