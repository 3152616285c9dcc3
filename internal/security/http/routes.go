package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	securityService "github.com/stellation/cloudview/internal/security/service"
	securityUseCase "github.com/stellation/cloudview/internal/security/usecase"
)

// RouteConfig carries the rate limiting settings for the public endpoints.
type RouteConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// RegisterRoutes mounts the security API under /v1.
//
// Token issuance is the only unauthenticated endpoint and is rate limited by
// client IP; everything else requires a valid API key or session token, with
// per-principal rate limiting and permission checks per route.
func RegisterRoutes(
	router *gin.Engine,
	apiKeyUseCase securityUseCase.APIKeyUseCase,
	sessionUseCase securityUseCase.SessionUseCase,
	events *securityService.EventLog,
	logger *slog.Logger,
	cfg RouteConfig,
) {
	apiKeyHandler := NewAPIKeyHandler(apiKeyUseCase, logger)
	tokenHandler := NewTokenHandler(sessionUseCase, logger)

	// A non-positive rate disables limiting entirely.
	rateLimit := gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if cfg.RateLimitRPS > 0 {
		rateLimit = RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, events, logger)
	}
	authenticate := AuthenticationMiddleware(apiKeyUseCase, sessionUseCase, logger)

	v1 := router.Group("/v1")

	v1.POST("/tokens", rateLimit, tokenHandler.IssueTokenHandler)

	authenticated := v1.Group("")
	authenticated.Use(authenticate, rateLimit)

	authenticated.GET("/auth/me", tokenHandler.MeHandler)

	authenticated.GET("/api-keys",
		RequirePermission(securityDomain.PermissionReadConfig, events, logger),
		apiKeyHandler.ListAPIKeysHandler,
	)
	authenticated.POST("/api-keys",
		RequirePermission(securityDomain.PermissionManageConfig, events, logger),
		apiKeyHandler.CreateAPIKeyHandler,
	)
	authenticated.DELETE("/api-keys",
		RequirePermission(securityDomain.PermissionManageConfig, events, logger),
		apiKeyHandler.RevokeAPIKeyHandler,
	)
}
