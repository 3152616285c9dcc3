// Package usecase defines business logic interfaces for API-key and session
// token operations.
package usecase

import (
	"context"
	"time"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// CredentialRepository defines persistence operations for the credential
// table. Load keeps ErrStoreNotFound and ErrStoreIntegrity distinct: a
// missing table may be seeded with defaults, a corrupt one must never be.
type CredentialRepository interface {
	// Load retrieves the full credential table, or ErrStoreNotFound.
	Load(ctx context.Context) (*securityDomain.CredentialTable, error)

	// Save persists the full credential table atomically.
	Save(ctx context.Context, table *securityDomain.CredentialTable) error
}

// APIKeyUseCase defines business logic operations for managing API keys.
// It orchestrates the key lifecycle: secret generation, authentication with
// lockout enforcement, soft revocation, and redacted listing.
type APIKeyUseCase interface {
	// Init loads the persisted credential table into memory. On a missing
	// table it seeds a default admin key, logging the plain secret exactly
	// once. A corrupt table fails Init outright: recovery requires the
	// operator to explicitly discard the store.
	Init(ctx context.Context) error

	// Create generates a new API key with a cryptographically secure secret.
	//
	// Returns the plain text secret and the redacted record. The plain
	// secret is only returned once and is never retrievable again; only its
	// salted verification hash is stored.
	Create(
		ctx context.Context,
		createInput *securityDomain.CreateAPIKeyInput,
	) (*securityDomain.CreateAPIKeyOutput, error)

	// Validate authenticates a presented secret and returns the principal
	// with permissions resolved from the role table. Every failure mode
	// (unknown, malformed, revoked, wrong secret) collapses into
	// ErrInvalidCredentials; a locked identifier returns ErrIdentifierLocked
	// without consulting the credential table at all.
	Validate(ctx context.Context, presentedSecret string) (*securityDomain.Principal, error)

	// Revoke deactivates the record matching the presented secret and
	// reports whether a record existed. Revoked records are kept for audit
	// visibility in listings.
	Revoke(ctx context.Context, presentedSecret string) (bool, error)

	// List returns redacted metadata for every record: never the full
	// secret or its hash.
	List(ctx context.Context) ([]*securityDomain.RedactedAPIKey, error)

	// Close drains in-flight background persists during shutdown, bounded
	// by the context deadline.
	Close(ctx context.Context) error
}

// IssueTokenOutput is the result of exchanging an API key for a session token.
type IssueTokenOutput struct {
	Token     string
	ExpiresAt time.Time
	Principal *securityDomain.Principal
}

// SessionUseCase exchanges API keys for short-lived signed session tokens and
// authenticates presented tokens.
type SessionUseCase interface {
	// IssueToken validates the presented API key and, on success, issues a
	// signed session token carrying the principal's claims.
	IssueToken(
		ctx context.Context,
		presentedSecret string,
		ttl time.Duration,
	) (*IssueTokenOutput, error)

	// Authenticate verifies a session token and rebuilds its principal.
	// Any failure returns ErrInvalidToken.
	Authenticate(ctx context.Context, token string) (*securityDomain.Principal, error)
}
