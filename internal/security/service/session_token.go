package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"

	apperrors "github.com/stellation/cloudview/internal/errors"
	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// TokenClaims is the signed payload of a session token.
type TokenClaims struct {
	Username    string                      `json:"username"`
	Role        securityDomain.Role         `json:"role"`
	Permissions []securityDomain.Permission `json:"permissions"`
	IssuedAt    int64                       `json:"iat"`
	ExpiresAt   int64                       `json:"exp"`
}

// Principal rebuilds the principal carried by the claims.
func (c *TokenClaims) Principal() *securityDomain.Principal {
	permissions := make([]securityDomain.Permission, len(c.Permissions))
	copy(permissions, c.Permissions)
	return &securityDomain.Principal{
		Username:    c.Username,
		Role:        c.Role,
		Permissions: permissions,
	}
}

// sessionTokenService signs and verifies session tokens with HMAC-SHA256.
// Token format: base64url(claims JSON) + "." + base64url(signature).
type sessionTokenService struct {
	signingKey []byte
	now        func() time.Time
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// configured secret. Separates the external secret from the HMAC key proper.
// Info parameter: "session-token-signing-v1" (versioned for future algorithm changes).
func deriveSigningKey(secret []byte) ([]byte, error) {
	info := []byte("session-token-signing-v1")
	hkdf := hkdf.New(sha256.New, secret, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// Issue signs the principal's claims with the given lifetime and returns the
// compact token.
func (s *sessionTokenService) Issue(
	principal *securityDomain.Principal,
	ttl time.Duration,
) (string, error) {
	now := s.now().UTC()
	claims := TokenClaims{
		Username:    principal.Username,
		Role:        principal.Role,
		Permissions: principal.Permissions,
		IssuedAt:    now.Unix(),
		ExpiresAt:   now.Add(ttl).Unix(),
	}

	payload, err := json.Marshal(&claims)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode token claims")
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	signature := s.sign(encoded)

	return encoded + "." + signature, nil
}

// Verify checks the token's signature and expiry. Every failure collapses
// into ErrInvalidToken: callers must not be able to distinguish an expired
// token from a tampered one.
func (s *sessionTokenService) Verify(token string) (*TokenClaims, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return nil, securityDomain.ErrInvalidToken
	}

	expected := s.sign(encoded)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return nil, securityDomain.ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, securityDomain.ErrInvalidToken
	}

	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, securityDomain.ErrInvalidToken
	}

	if s.now().UTC().Unix() >= claims.ExpiresAt {
		return nil, securityDomain.ErrInvalidToken
	}

	return &claims, nil
}

// sign computes the base64url HMAC-SHA256 signature of the encoded payload.
func (s *sessionTokenService) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// NewSessionTokenService creates a SessionTokenService signing with a key
// derived from signingSecret.
//
// When signingSecret is empty a random one is generated for this process and
// a warning is logged: every token is invalidated on restart. That is an
// operational constraint of running without TOKEN_SIGNING_SECRET, not a
// defect, and the generated secret is deliberately not persisted.
func NewSessionTokenService(signingSecret string, logger *slog.Logger) (SessionTokenService, error) {
	secret := []byte(signingSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, apperrors.Wrap(err, "failed to generate signing secret")
		}
		logger.Warn("no token signing secret configured, generated an ephemeral one; " +
			"all session tokens will be invalidated on restart")
	}

	signingKey, err := deriveSigningKey(secret)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive signing key")
	}
	securityDomain.Zero(secret)

	return &sessionTokenService{
		signingKey: signingKey,
		now:        time.Now,
	}, nil
}
