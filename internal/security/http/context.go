// Package http provides HTTP middleware and handlers for authentication and
// API-key management.
package http

import (
	"context"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// principalKey is a context key type for storing authenticated principals.
type principalKey struct{}

// WithPrincipal stores an authenticated principal in the context.
// This is typically called by the authentication middleware after successful
// credential validation.
func WithPrincipal(ctx context.Context, principal *securityDomain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// GetPrincipal retrieves the authenticated principal from the context.
// Returns (principal, true) if one is present, or (nil, false) otherwise.
func GetPrincipal(ctx context.Context) (*securityDomain.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(*securityDomain.Principal)
	return principal, ok
}
