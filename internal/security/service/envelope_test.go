package service

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

func newTestCipher(t *testing.T) *EnvelopeCipher {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cipher, err := NewEnvelopeCipher(key)
	require.NoError(t, err)
	return cipher
}

func TestNewEnvelopeCipher(t *testing.T) {
	t.Run("Success_ValidKey", func(t *testing.T) {
		cipher, err := NewEnvelopeCipher(make([]byte, 32))
		require.NoError(t, err)
		assert.NotNil(t, cipher)
	})

	t.Run("Error_InvalidKeySizes", func(t *testing.T) {
		for _, size := range []int{0, 16, 24, 31, 33, 64} {
			_, err := NewEnvelopeCipher(make([]byte, size))
			assert.Error(t, err, "key size %d should be rejected", size)
		}
	})
}

func TestEnvelopeCipher_Seal(t *testing.T) {
	cipher := newTestCipher(t)

	t.Run("Success_ProducesHexFields", func(t *testing.T) {
		envelope, err := cipher.Seal([]byte("sensitive payload"))
		require.NoError(t, err)

		iv, err := hex.DecodeString(envelope.IV)
		require.NoError(t, err)
		assert.Len(t, iv, 16)

		tag, err := hex.DecodeString(envelope.AuthTag)
		require.NoError(t, err)
		assert.Len(t, tag, 16)

		_, err = hex.DecodeString(envelope.Encrypted)
		require.NoError(t, err)
	})

	t.Run("Success_UniqueIVPerSeal", func(t *testing.T) {
		first, err := cipher.Seal([]byte("payload"))
		require.NoError(t, err)
		second, err := cipher.Seal([]byte("payload"))
		require.NoError(t, err)

		assert.NotEqual(t, first.IV, second.IV)
		assert.NotEqual(t, first.Encrypted, second.Encrypted)
	})

	t.Run("Success_EmptyPlaintext", func(t *testing.T) {
		envelope, err := cipher.Seal(nil)
		require.NoError(t, err)

		plaintext, err := cipher.Open(envelope)
		require.NoError(t, err)
		assert.Empty(t, plaintext)
	})
}

func TestEnvelopeCipher_Open(t *testing.T) {
	cipher := newTestCipher(t)

	t.Run("Success_RoundTrip", func(t *testing.T) {
		original := []byte(`{"version":1,"keys":{}}`)
		envelope, err := cipher.Seal(original)
		require.NoError(t, err)

		plaintext, err := cipher.Open(envelope)
		require.NoError(t, err)
		assert.Equal(t, original, plaintext)
	})

	t.Run("Error_TamperedCiphertext", func(t *testing.T) {
		envelope, err := cipher.Seal([]byte("payload to protect"))
		require.NoError(t, err)

		raw, err := hex.DecodeString(envelope.Encrypted)
		require.NoError(t, err)
		raw[0] ^= 0xff
		envelope.Encrypted = hex.EncodeToString(raw)

		plaintext, err := cipher.Open(envelope)
		assert.ErrorIs(t, err, securityDomain.ErrEnvelopeIntegrity)
		assert.Nil(t, plaintext)
	})

	t.Run("Error_TamperedAuthTag", func(t *testing.T) {
		envelope, err := cipher.Seal([]byte("payload to protect"))
		require.NoError(t, err)

		raw, err := hex.DecodeString(envelope.AuthTag)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0x01
		envelope.AuthTag = hex.EncodeToString(raw)

		plaintext, err := cipher.Open(envelope)
		assert.ErrorIs(t, err, securityDomain.ErrEnvelopeIntegrity)
		assert.Nil(t, plaintext)
	})

	t.Run("Error_WrongKey", func(t *testing.T) {
		envelope, err := cipher.Seal([]byte("payload"))
		require.NoError(t, err)

		other := newTestCipher(t)
		plaintext, err := other.Open(envelope)
		assert.ErrorIs(t, err, securityDomain.ErrEnvelopeIntegrity)
		assert.Nil(t, plaintext)
	})

	t.Run("Error_MalformedEnvelope", func(t *testing.T) {
		tests := []struct {
			name     string
			envelope *securityDomain.Envelope
		}{
			{"nil envelope", nil},
			{"non-hex ciphertext", &securityDomain.Envelope{Encrypted: "zz", IV: hex.EncodeToString(make([]byte, 16)), AuthTag: hex.EncodeToString(make([]byte, 16))}},
			{"short iv", &securityDomain.Envelope{Encrypted: "00", IV: "abcd", AuthTag: hex.EncodeToString(make([]byte, 16))}},
			{"short tag", &securityDomain.Envelope{Encrypted: "00", IV: hex.EncodeToString(make([]byte, 16)), AuthTag: "abcd"}},
			{"empty fields", &securityDomain.Envelope{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				plaintext, err := cipher.Open(tt.envelope)
				assert.ErrorIs(t, err, securityDomain.ErrEnvelopeIntegrity)
				assert.Nil(t, plaintext)
			})
		}
	})
}
