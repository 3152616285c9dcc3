// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// CreateAPIKeyResponse contains the result of creating a new API key.
// SECURITY: The apiKey is only returned once and must be saved securely.
type CreateAPIKeyResponse struct {
	APIKey string         `json:"apiKey"` //nolint:gosec // returned once on creation
	Record APIKeyResponse `json:"record"`
}

// APIKeyResponse represents an API key in responses: metadata plus a short
// non-reversible preview, never the full secret or its hash.
type APIKeyResponse struct {
	KeyPreview  string     `json:"keyPreview"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsed    *time.Time `json:"lastUsed"`
	IsActive    bool       `json:"isActive"`
}

// MapAPIKeyToResponse converts a redacted domain record to an API response.
func MapAPIKeyToResponse(record *securityDomain.RedactedAPIKey) APIKeyResponse {
	return APIKeyResponse{
		KeyPreview:  record.Preview,
		Username:    record.Username,
		Role:        string(record.Role),
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
		LastUsed:    record.LastUsedAt,
		IsActive:    record.IsActive,
	}
}

// ListAPIKeysResponse represents a paginated list of API keys.
type ListAPIKeysResponse struct {
	Data []APIKeyResponse `json:"data"`
}

// MapAPIKeysToListResponse converts redacted domain records to a list response.
func MapAPIKeysToListResponse(records []*securityDomain.RedactedAPIKey) ListAPIKeysResponse {
	responses := make([]APIKeyResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, MapAPIKeyToResponse(record))
	}
	return ListAPIKeysResponse{
		Data: responses,
	}
}

// RevokeAPIKeyResponse reports whether a record matched the presented secret.
type RevokeAPIKeyResponse struct {
	Revoked bool `json:"revoked"`
}

// IssueTokenResponse contains the result of issuing a session token.
// SECURITY: The token is only returned once and must be saved securely.
type IssueTokenResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Principal PrincipalResponse `json:"principal"`
}

// PrincipalResponse represents an authenticated identity in API responses.
type PrincipalResponse struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// MapPrincipalToResponse converts a domain principal to an API response.
func MapPrincipalToResponse(principal *securityDomain.Principal) PrincipalResponse {
	permissions := make([]string, 0, len(principal.Permissions))
	for _, permission := range principal.Permissions {
		permissions = append(permissions, string(permission))
	}
	return PrincipalResponse{
		Username:    principal.Username,
		Role:        string(principal.Role),
		Permissions: permissions,
	}
}
