// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/stellation/cloudview/internal/validation"
)

// maxTokenTTLSeconds caps requested session token lifetimes at 24 hours.
const maxTokenTTLSeconds = 24 * 60 * 60

// CreateAPIKeyRequest contains the parameters for creating a new API key.
// The secret is always generated server-side and cannot be supplied.
type CreateAPIKeyRequest struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

// Validate checks if the create API key request is valid.
func (r *CreateAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Username,
		),
		validation.Field(&r.Role,
			validation.Required,
			customValidation.Role,
		),
		validation.Field(&r.Description,
			validation.Length(0, 255),
		),
	)
}

// RevokeAPIKeyRequest contains the parameters for revoking an API key by its
// full secret.
type RevokeAPIKeyRequest struct {
	APIKey string `json:"apiKey"`
}

// Validate checks if the revoke API key request is valid.
func (r *RevokeAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.APIKey,
			validation.Required,
			customValidation.APIKeySecret,
		),
	)
}

// IssueTokenRequest contains the optional parameters for session token
// issuance. The API key itself is presented via the X-API-Key header.
type IssueTokenRequest struct {
	TTLSeconds int `json:"ttlSeconds"`
}

// Validate checks if the issue token request is valid.
func (r *IssueTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TTLSeconds,
			validation.Min(0),
			validation.Max(maxTokenTTLSeconds),
		),
	)
}
