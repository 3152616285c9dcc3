package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	securityRepository "github.com/stellation/cloudview/internal/security/repository"
	securityService "github.com/stellation/cloudview/internal/security/service"
	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// testEnv carries a fully wired router backed by in-memory persistence.
type testEnv struct {
	router  *gin.Engine
	apiKeys securityUseCase.APIKeyUseCase
	session securityUseCase.SessionUseCase
}

// newTestEnv wires real use cases over an in-memory repository.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newRateLimitedEnv(t, 1000, 1000)
}

// newRateLimitedEnv wires a router with a specific rate limit.
func newRateLimitedEnv(t *testing.T, rps float64, burst int) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := securityService.NewEventLog(securityService.NewSlogSink(logger))
	lockout := securityService.NewLockoutTracker(5, 15*time.Minute, events)

	apiKeys := securityUseCase.NewAPIKeyUseCase(
		securityRepository.NewMemoryCredentialRepository(),
		securityService.NewSecretService(),
		lockout,
		events,
		logger,
		time.Second,
	)

	tokenService, err := securityService.NewSessionTokenService("test-signing-secret", logger)
	require.NoError(t, err)
	session := securityUseCase.NewSessionUseCase(apiKeys, tokenService, time.Hour)

	router := gin.New()
	RegisterRoutes(router, apiKeys, session, events, logger, RouteConfig{
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	})

	return &testEnv{router: router, apiKeys: apiKeys, session: session}
}

// createKey provisions an API key directly through the use case.
func (e *testEnv) createKey(t *testing.T, username string, role securityDomain.Role) string {
	t.Helper()
	output, err := e.apiKeys.Create(context.Background(), &securityDomain.CreateAPIKeyInput{
		Username: username,
		Role:     role,
	})
	require.NoError(t, err)
	return output.PlainSecret
}

// doRequest performs a request against the test router.
func (e *testEnv) doRequest(t *testing.T, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// doRequestWithBearer performs a GET with an Authorization Bearer header.
func (e *testEnv) doRequestWithBearer(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeJSON unmarshals a recorded response body.
func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	require.Equal(t, expected, w.Code, "unexpected status, body: %s", w.Body.String())
}
