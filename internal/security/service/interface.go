// Package service provides technical services for the security manager.
//
// This package implements reusable services for API-key secret generation,
// hashing, and validation, session token signing, key storage, lockout
// tracking, and security event emission.
package service

import (
	"context"
	"time"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// SecretService defines operations for API-key secret generation and validation.
// Implementations must use cryptographically secure random generation and an
// industry-standard hashing algorithm (e.g., bcrypt, argon2).
type SecretService interface {
	// GenerateSecret creates a new random API-key secret. Returns both the
	// plain text secret (shared with the caller exactly once) and the salted
	// verification hash (the only form stored).
	GenerateSecret() (plainSecret string, verificationHash string, err error)

	// HashSecret hashes a plain secret using the configured algorithm.
	HashSecret(plainSecret string) (string, error)

	// VerifySecret compares a plain secret against a stored verification
	// hash. This is constant-time to prevent timing attacks.
	VerifySecret(plainSecret string, verificationHash string) bool

	// LookupID derives the non-secret record index for a secret.
	LookupID(plainSecret string) string

	// Preview returns the short non-reversible listing preview of a secret.
	Preview(plainSecret string) string

	// ValidFormat reports whether a presented string matches the generated
	// secret shape (prefix, length, hex body).
	ValidFormat(plainSecret string) bool
}

// SessionTokenService signs and verifies short-lived session tokens.
type SessionTokenService interface {
	// Issue signs the principal's claims with the given lifetime and returns
	// the compact token.
	Issue(principal *securityDomain.Principal, ttl time.Duration) (string, error)

	// Verify checks signature and expiry, returning the claims or
	// ErrInvalidToken for any failure.
	Verify(token string) (*TokenClaims, error)
}

// KeyStore loads and creates the persisted at-rest encryption key.
type KeyStore interface {
	// Load returns the persisted key material or ErrKeyMaterialNotFound.
	// It never creates: that decision belongs to the caller.
	Load(ctx context.Context) (*KeyMaterial, error)

	// CreateAndPersist generates fresh key material and persists it with
	// owner-only permissions.
	CreateAndPersist(ctx context.Context) (*KeyMaterial, error)
}
