package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/stellation/cloudview/internal/errors"
	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// secretService implements SecretService using Argon2id for verification hashes.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// randomSecret draws a new plain secret: the fixed sk_ marker followed by
// 64 hex characters from 32 random bytes.
func randomSecret() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate random secret")
	}
	return securityDomain.SecretPrefix + hex.EncodeToString(randomBytes), nil
}

// GenerateSecret creates a new API-key secret. Returns the plain secret
// (shown exactly once) and its Argon2id verification hash.
func (s *secretService) GenerateSecret() (plainSecret string, verificationHash string, err error) {
	plainSecret, err = randomSecret()
	if err != nil {
		return "", "", err
	}

	verificationHash, err = s.HashSecret(plainSecret)
	if err != nil {
		return "", "", err
	}

	return plainSecret, verificationHash, nil
}

// HashSecret hashes a plain secret using Argon2id with a per-hash salt.
func (s *secretService) HashSecret(plainSecret string) (string, error) {
	hash, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hash, nil
}

// VerifySecret performs a constant-time comparison of a plain secret against
// its stored verification hash.
func (s *secretService) VerifySecret(plainSecret string, verificationHash string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), verificationHash)
	if err != nil {
		return false
	}
	return ok
}

// LookupID derives the non-secret record index for a presented secret:
// hex-encoded SHA-256. Deterministic, so records are found in O(1) without
// ever using the plaintext as a map key.
func (s *secretService) LookupID(plainSecret string) string {
	sum := sha256.Sum256([]byte(plainSecret))
	return hex.EncodeToString(sum[:])
}

// Preview returns the short non-reversible listing preview of a secret.
func (s *secretService) Preview(plainSecret string) string {
	if len(plainSecret) < securityDomain.PreviewLength {
		return plainSecret
	}
	return plainSecret[:securityDomain.PreviewLength]
}

// ValidFormat reports whether a presented string has the shape of a generated
// secret: correct prefix, correct length, hex body. Anything else is rejected
// before any store access.
func (s *secretService) ValidFormat(plainSecret string) bool {
	if len(plainSecret) != securityDomain.SecretLength {
		return false
	}
	if !strings.HasPrefix(plainSecret, securityDomain.SecretPrefix) {
		return false
	}
	_, err := hex.DecodeString(plainSecret[len(securityDomain.SecretPrefix):])
	return err == nil
}

// NewSecretService creates a SecretService using Argon2id hashing.
// Uses the Moderate policy for a balance between security and performance.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &secretService{
		hasher: hasher,
	}
}
