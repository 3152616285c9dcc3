package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stellation/cloudview/internal/httputil"
	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	"github.com/stellation/cloudview/internal/security/http/dto"
	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
	customValidation "github.com/stellation/cloudview/internal/validation"
)

// APIKeyHandler handles HTTP requests for API key management operations.
type APIKeyHandler struct {
	apiKeyUseCase securityUseCase.APIKeyUseCase
	logger        *slog.Logger
}

// NewAPIKeyHandler creates a new API key handler with required dependencies.
func NewAPIKeyHandler(
	apiKeyUseCase securityUseCase.APIKeyUseCase,
	logger *slog.Logger,
) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyUseCase: apiKeyUseCase,
		logger:        logger,
	}
}

// CreateAPIKeyHandler creates a new API key.
// POST /v1/api-keys - requires manage:config.
// Returns 201 Created with the plain secret, shown exactly once.
func (h *APIKeyHandler) CreateAPIKeyHandler(c *gin.Context) {
	var req dto.CreateAPIKeyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	role, err := securityDomain.ParseRole(req.Role)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	output, err := h.apiKeyUseCase.Create(c.Request.Context(), &securityDomain.CreateAPIKeyInput{
		Username:    req.Username,
		Role:        role,
		Description: req.Description,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateAPIKeyResponse{
		APIKey: output.PlainSecret,
		Record: dto.MapAPIKeyToResponse(output.Record),
	})
}

// ListAPIKeysHandler lists API keys as redacted metadata.
// GET /v1/api-keys?offset=0&limit=50 - requires read:config.
func (h *APIKeyHandler) ListAPIKeysHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	records, err := h.apiKeyUseCase.List(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if offset > len(records) {
		offset = len(records)
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}

	c.JSON(http.StatusOK, dto.MapAPIKeysToListResponse(records[offset:end]))
}

// RevokeAPIKeyHandler revokes the API key matching the presented secret.
// DELETE /v1/api-keys - requires manage:config.
// Returns 200 with revoked=false when no record matched, so callers can tell
// a no-op from a success without leaking which secrets exist via status codes.
func (h *APIKeyHandler) RevokeAPIKeyHandler(c *gin.Context) {
	var req dto.RevokeAPIKeyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	revoked, err := h.apiKeyUseCase.Revoke(c.Request.Context(), req.APIKey)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RevokeAPIKeyResponse{Revoked: revoked})
}
