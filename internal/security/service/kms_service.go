package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeyWrapper wraps and unwraps the at-rest encryption key with an external
// key-management service, so secrets.json never holds the raw key.
type KeyWrapper interface {
	Wrap(ctx context.Context, plaintext []byte) ([]byte, error)
	Unwrap(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// kmsKeyWrapper implements KeyWrapper using gocloud.dev/secrets.
type kmsKeyWrapper struct {
	keeper *secrets.Keeper
}

// NewKMSKeyWrapper opens a keeper for the configured key URI.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func NewKMSKeyWrapper(ctx context.Context, keyURI string) (KeyWrapper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return &kmsKeyWrapper{keeper: keeper}, nil
}

func (k *kmsKeyWrapper) Wrap(ctx context.Context, plaintext []byte) ([]byte, error) {
	wrapped, err := k.keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key: %w", err)
	}
	return wrapped, nil
}

func (k *kmsKeyWrapper) Unwrap(ctx context.Context, ciphertext []byte) ([]byte, error) {
	plaintext, err := k.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap key: %w", err)
	}
	return plaintext, nil
}

func (k *kmsKeyWrapper) Close() error {
	return k.keeper.Close()
}
