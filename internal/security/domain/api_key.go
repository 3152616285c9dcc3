package domain

import (
	"time"
)

// APIKeyRecord is the stored form of one API credential. The plain secret is
// never stored: records are indexed by LookupID (SHA-256 of the secret) and
// authenticated against VerificationHash (salted Argon2id of the secret).
type APIKeyRecord struct {
	LookupID         string     `json:"lookupId"`
	Preview          string     `json:"preview"`
	Username         string     `json:"username"`
	Role             Role       `json:"role"`
	Description      string     `json:"description,omitempty"`
	VerificationHash string     `json:"verificationHash"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastUsedAt       *time.Time `json:"lastUsed"`
	IsActive         bool       `json:"isActive"`
}

// CredentialTable is the full set of API-key records keyed by lookup ID.
// The Version field gates schema upgrades on load.
type CredentialTable struct {
	Version int                      `json:"version"`
	Keys    map[string]*APIKeyRecord `json:"keys"`
}

// NewCredentialTable returns an empty table at the current schema version.
func NewCredentialTable() *CredentialTable {
	return &CredentialTable{
		Version: CredentialTableVersion,
		Keys:    make(map[string]*APIKeyRecord),
	}
}

// Clone returns a deep copy of the table so callers can persist a snapshot
// without holding the owner's lock.
func (t *CredentialTable) Clone() *CredentialTable {
	clone := &CredentialTable{
		Version: t.Version,
		Keys:    make(map[string]*APIKeyRecord, len(t.Keys)),
	}
	for id, record := range t.Keys {
		copied := *record
		if record.LastUsedAt != nil {
			lastUsed := *record.LastUsedAt
			copied.LastUsedAt = &lastUsed
		}
		clone.Keys[id] = &copied
	}
	return clone
}

// Principal is the authenticated identity plus its resolved permission set.
// It is derived fresh on every successful validation and never cached.
type Principal struct {
	Username    string       `json:"username"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// HasPermission reports whether the principal's resolved set contains the
// given permission.
func (p *Principal) HasPermission(permission Permission) bool {
	for _, candidate := range p.Permissions {
		if candidate == permission {
			return true
		}
	}
	return false
}

// RedactedAPIKey is the listing view of a record: metadata only, with the
// secret reduced to its stored preview.
type RedactedAPIKey struct {
	Preview     string     `json:"keyPreview"`
	Username    string     `json:"username"`
	Role        Role       `json:"role"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsedAt  *time.Time `json:"lastUsed"`
	IsActive    bool       `json:"isActive"`
}

// Redacted returns the record's listing view.
func (r *APIKeyRecord) Redacted() *RedactedAPIKey {
	redacted := &RedactedAPIKey{
		Preview:     r.Preview,
		Username:    r.Username,
		Role:        r.Role,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		IsActive:    r.IsActive,
	}
	if r.LastUsedAt != nil {
		lastUsed := *r.LastUsedAt
		redacted.LastUsedAt = &lastUsed
	}
	return redacted
}

// CreateAPIKeyInput contains the parameters for creating a new API key.
// The secret is always generated and cannot be supplied by the caller.
type CreateAPIKeyInput struct {
	Username    string
	Role        Role
	Description string
}

// CreateAPIKeyOutput contains the result of creating an API key.
// SECURITY: PlainSecret is returned exactly once and is never retrievable again.
type CreateAPIKeyOutput struct {
	PlainSecret string
	Record      *RedactedAPIKey
}

// Envelope is the authenticated-encryption wrapping of a byte payload:
// hex-encoded ciphertext, a 16-byte IV, and a 16-byte authentication tag,
// matching the persisted api-keys.json layout.
type Envelope struct {
	Encrypted string `json:"encrypted"`
	IV        string `json:"iv"`
	AuthTag   string `json:"authTag"`
}
