// Package service provides the cryptographic and stateful services of the
// security manager: envelope encryption, key storage, secret generation and
// hashing, session token signing, lockout tracking, and event emission.
package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// envelopeAAD binds every sealed payload to this store's identity so a valid
// envelope lifted from another deployment fails authentication here.
const envelopeAAD = "cloudview-credential-store"

// envelopeIVSize is 16 bytes (128 bits), matching the persisted iv field.
const envelopeIVSize = 16

// envelopeTagSize is the GCM authentication tag length in bytes.
const envelopeTagSize = 16

// EnvelopeCipher seals and opens byte payloads using AES-256-GCM with a
// random 128-bit IV per seal call. Open fails closed: any tag mismatch or
// malformed envelope field yields ErrEnvelopeIntegrity and no plaintext.
//
// The cipher instance is stateless and safe for concurrent use from multiple
// goroutines.
type EnvelopeCipher struct {
	aead cipher.AEAD
}

// NewEnvelopeCipher creates an AES-256-GCM envelope cipher.
// The key must be exactly 32 bytes and should come from the key store.
func NewEnvelopeCipher(key []byte) (*EnvelopeCipher, error) {
	if len(key) != 32 {
		return nil, errors.New("key must be exactly 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, envelopeIVSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &EnvelopeCipher{aead: aead}, nil
}

// Seal encrypts plaintext and returns the hex-encoded envelope. A fresh
// random IV is generated per call; with GCM an IV must never be reused under
// the same key.
func (e *EnvelopeCipher) Seal(plaintext []byte) (*securityDomain.Envelope, error) {
	iv := make([]byte, envelopeIVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := e.aead.Seal(nil, iv, plaintext, []byte(envelopeAAD))

	// GCM appends the tag to the ciphertext; split it out so the persisted
	// envelope carries ciphertext, iv, and tag as separate fields.
	tagOffset := len(sealed) - envelopeTagSize
	return &securityDomain.Envelope{
		Encrypted: hex.EncodeToString(sealed[:tagOffset]),
		IV:        hex.EncodeToString(iv),
		AuthTag:   hex.EncodeToString(sealed[tagOffset:]),
	}, nil
}

// Open authenticates and decrypts an envelope. Every failure mode collapses
// into ErrEnvelopeIntegrity so callers cannot distinguish malformed input
// from tampering.
func (e *EnvelopeCipher) Open(envelope *securityDomain.Envelope) ([]byte, error) {
	if envelope == nil {
		return nil, securityDomain.ErrEnvelopeIntegrity
	}

	ciphertext, err := hex.DecodeString(envelope.Encrypted)
	if err != nil {
		return nil, securityDomain.ErrEnvelopeIntegrity
	}

	iv, err := hex.DecodeString(envelope.IV)
	if err != nil || len(iv) != envelopeIVSize {
		return nil, securityDomain.ErrEnvelopeIntegrity
	}

	authTag, err := hex.DecodeString(envelope.AuthTag)
	if err != nil || len(authTag) != envelopeTagSize {
		return nil, securityDomain.ErrEnvelopeIntegrity
	}

	sealed := make([]byte, 0, len(ciphertext)+len(authTag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, authTag...)

	plaintext, err := e.aead.Open(nil, iv, sealed, []byte(envelopeAAD))
	if err != nil {
		return nil, securityDomain.ErrEnvelopeIntegrity
	}
	return plaintext, nil
}
