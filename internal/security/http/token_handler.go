package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/stellation/cloudview/internal/errors"
	"github.com/stellation/cloudview/internal/httputil"
	"github.com/stellation/cloudview/internal/security/http/dto"
	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
	customValidation "github.com/stellation/cloudview/internal/validation"
)

// TokenHandler handles HTTP requests for session token operations.
type TokenHandler struct {
	sessionUseCase securityUseCase.SessionUseCase
	logger         *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(
	sessionUseCase securityUseCase.SessionUseCase,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{
		sessionUseCase: sessionUseCase,
		logger:         logger,
	}
}

// IssueTokenHandler exchanges an API key for a session token.
// POST /v1/tokens - the API key is presented via the X-API-Key header; this
// is the authentication endpoint, so no principal is required.
// Returns 201 Created with the token and expiration time.
func (h *TokenHandler) IssueTokenHandler(c *gin.Context) {
	apiKey := c.GetHeader("X-API-Key")
	if apiKey == "" {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.IssueTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
		if err := req.Validate(); err != nil {
			httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
			return
		}
	}

	output, err := h.sessionUseCase.IssueToken(
		c.Request.Context(),
		apiKey,
		time.Duration(req.TTLSeconds)*time.Second,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.IssueTokenResponse{
		Token:     output.Token,
		ExpiresAt: output.ExpiresAt,
		Principal: dto.MapPrincipalToResponse(output.Principal),
	})
}

// MeHandler echoes the authenticated principal.
// GET /v1/auth/me - requires authentication only, no specific permission.
func (h *TokenHandler) MeHandler(c *gin.Context) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPrincipalToResponse(principal))
}
