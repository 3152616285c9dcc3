package domain

import (
	"github.com/stellation/cloudview/internal/errors"
)

// Security domain errors.
//
// All authentication failures collapse into ErrInvalidCredentials so callers
// learn nothing about which check failed. Persistence failures keep NotFound
// and Integrity distinct: a missing store may be seeded with defaults, a
// corrupt store must never be.
var (
	// ErrInvalidCredentials indicates an unknown, malformed, revoked, or
	// otherwise unacceptable API key.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid API key")

	// ErrIdentifierLocked indicates the identifier is locked out after
	// repeated failures; the credential itself was not consulted.
	ErrIdentifierLocked = errors.Wrap(errors.ErrLocked, "identifier temporarily locked")

	// ErrPermissionDenied indicates the authenticated principal lacks the
	// required permission.
	ErrPermissionDenied = errors.Wrap(errors.ErrForbidden, "permission denied")

	// ErrInvalidToken indicates a session token failed verification. Expired,
	// tampered, and malformed tokens are deliberately indistinguishable.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid session token")

	// ErrInvalidRole indicates a role name outside the static role table.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role")

	// ErrEnvelopeIntegrity indicates an envelope failed authenticated
	// decryption (tag mismatch or malformed fields).
	ErrEnvelopeIntegrity = errors.Wrap(errors.ErrIntegrity, "envelope authentication failed")

	// ErrStoreIntegrity indicates the persisted credential table could not be
	// decrypted or decoded. Recovery requires explicit operator confirmation.
	ErrStoreIntegrity = errors.Wrap(errors.ErrIntegrity, "credential store corrupt or tampered")

	// ErrStoreNotFound indicates no credential table has been persisted yet.
	ErrStoreNotFound = errors.Wrap(errors.ErrNotFound, "credential store not found")

	// ErrKeyMaterialNotFound indicates no encryption key has been persisted yet.
	ErrKeyMaterialNotFound = errors.Wrap(errors.ErrNotFound, "encryption key not found")

	// ErrKeyMaterialInvalid indicates the persisted encryption key is malformed.
	ErrKeyMaterialInvalid = errors.Wrap(errors.ErrIntegrity, "encryption key malformed")

	// ErrUnsupportedTableVersion indicates a persisted table with a schema
	// version newer than this build understands.
	ErrUnsupportedTableVersion = errors.Wrap(errors.ErrInvalidInput, "unsupported credential table version")
)
