package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	"github.com/stellation/cloudview/internal/security/http/dto"
)

func TestAuthenticationMiddleware(t *testing.T) {
	t.Run("Error_MissingCredential", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.doRequest(t, http.MethodGet, "/v1/auth/me", "", nil)
		requireStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("Error_UnknownAPIKey", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.doRequest(t, http.MethodGet, "/v1/auth/me", "sk_"+strings.Repeat("0", 64), nil)
		requireStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("Error_LockedIdentifierReturns423", func(t *testing.T) {
		env := newTestEnv(t)
		wrong := "sk_" + strings.Repeat("0", 64)

		for i := 0; i < 5; i++ {
			w := env.doRequest(t, http.MethodGet, "/v1/auth/me", wrong, nil)
			requireStatus(t, w, http.StatusUnauthorized)
		}

		w := env.doRequest(t, http.MethodGet, "/v1/auth/me", wrong, nil)
		requireStatus(t, w, http.StatusLocked)
	})

	t.Run("Success_APIKeyHeader", func(t *testing.T) {
		env := newTestEnv(t)
		apiKey := env.createKey(t, "alice", securityDomain.RoleViewer)

		w := env.doRequest(t, http.MethodGet, "/v1/auth/me", apiKey, nil)
		requireStatus(t, w, http.StatusOK)

		var principal dto.PrincipalResponse
		decodeJSON(t, w, &principal)
		assert.Equal(t, "alice", principal.Username)
		assert.Equal(t, "viewer", principal.Role)
		assert.Contains(t, principal.Permissions, "read:instances")
	})

	t.Run("Success_BearerSessionToken", func(t *testing.T) {
		env := newTestEnv(t)
		apiKey := env.createKey(t, "alice", securityDomain.RoleOperator)

		issued := env.doRequest(t, http.MethodPost, "/v1/tokens", apiKey, nil)
		requireStatus(t, issued, http.StatusCreated)

		var tokenResponse dto.IssueTokenResponse
		decodeJSON(t, issued, &tokenResponse)

		req := env.doRequest(t, http.MethodGet, "/v1/auth/me", "", nil)
		requireStatus(t, req, http.StatusUnauthorized)

		w := env.doRequestWithBearer(t, "/v1/auth/me", tokenResponse.Token)
		requireStatus(t, w, http.StatusOK)

		var principal dto.PrincipalResponse
		decodeJSON(t, w, &principal)
		assert.Equal(t, "alice", principal.Username)
	})
}

func TestRequirePermission(t *testing.T) {
	t.Run("Error_ViewerCannotManageKeys", func(t *testing.T) {
		env := newTestEnv(t)
		apiKey := env.createKey(t, "viewer-user", securityDomain.RoleViewer)

		w := env.doRequest(t, http.MethodPost, "/v1/api-keys", apiKey, dto.CreateAPIKeyRequest{
			Username: "bob",
			Role:     "viewer",
		})
		requireStatus(t, w, http.StatusForbidden)
	})

	t.Run("Error_ViewerCannotListKeys", func(t *testing.T) {
		env := newTestEnv(t)
		apiKey := env.createKey(t, "viewer-user", securityDomain.RoleViewer)

		// viewer holds read:config, so listing is allowed; operator does too
		w := env.doRequest(t, http.MethodGet, "/v1/api-keys", apiKey, nil)
		requireStatus(t, w, http.StatusOK)
	})

	t.Run("Success_AdminManagesKeys", func(t *testing.T) {
		env := newTestEnv(t)
		apiKey := env.createKey(t, "root", securityDomain.RoleAdmin)

		w := env.doRequest(t, http.MethodPost, "/v1/api-keys", apiKey, dto.CreateAPIKeyRequest{
			Username: "bob",
			Role:     "operator",
		})
		requireStatus(t, w, http.StatusCreated)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Error_BurstExceeded", func(t *testing.T) {
		env := newRateLimitedEnv(t, 0.01, 2)
		apiKey := env.createKey(t, "alice", securityDomain.RoleViewer)

		first := env.doRequest(t, http.MethodGet, "/v1/auth/me", apiKey, nil)
		requireStatus(t, first, http.StatusOK)
		second := env.doRequest(t, http.MethodGet, "/v1/auth/me", apiKey, nil)
		requireStatus(t, second, http.StatusOK)

		third := env.doRequest(t, http.MethodGet, "/v1/auth/me", apiKey, nil)
		requireStatus(t, third, http.StatusTooManyRequests)
		require.NotEmpty(t, third.Header().Get("Retry-After"))
	})
}
