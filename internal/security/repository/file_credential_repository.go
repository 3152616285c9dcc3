// Package repository implements credential table persistence. The file
// repository keeps the table in an encrypted api-keys.json; the memory
// repository backs deployments without a writable storage directory.
package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "github.com/stellation/cloudview/internal/errors"
	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	securityService "github.com/stellation/cloudview/internal/security/service"
)

// CredentialsFileName is the file under the storage directory holding the
// encrypted credential table.
const CredentialsFileName = "api-keys.json"

// FileCredentialRepository persists the credential table as an encryption
// envelope on disk. Every read authenticates the whole file: any undecodable
// or undecryptable state surfaces as ErrStoreIntegrity, never as an empty
// table.
type FileCredentialRepository struct {
	path   string
	cipher *securityService.EnvelopeCipher
}

// NewFileCredentialRepository creates a repository rooted at dir, sealing
// with the given cipher.
func NewFileCredentialRepository(dir string, cipher *securityService.EnvelopeCipher) *FileCredentialRepository {
	return &FileCredentialRepository{
		path:   filepath.Join(dir, CredentialsFileName),
		cipher: cipher,
	}
}

// Load reads, authenticates, and decodes the persisted table. Returns
// ErrStoreNotFound when no table has been persisted yet and ErrStoreIntegrity
// when the file exists but cannot be verified.
func (r *FileCredentialRepository) Load(ctx context.Context) (*securityDomain.CredentialTable, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, securityDomain.ErrStoreNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read credential store")
	}

	var envelope securityDomain.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, securityDomain.ErrStoreIntegrity
	}

	plaintext, err := r.cipher.Open(&envelope)
	if err != nil {
		return nil, securityDomain.ErrStoreIntegrity
	}

	var table securityDomain.CredentialTable
	if err := json.Unmarshal(plaintext, &table); err != nil {
		return nil, securityDomain.ErrStoreIntegrity
	}
	if table.Version > securityDomain.CredentialTableVersion {
		return nil, securityDomain.ErrUnsupportedTableVersion
	}
	if table.Keys == nil {
		table.Keys = make(map[string]*securityDomain.APIKeyRecord)
	}

	return &table, nil
}

// Save seals the table and writes it with owner-only permissions via a
// temp-file rename, so a crash mid-write never corrupts the previous state.
func (r *FileCredentialRepository) Save(ctx context.Context, table *securityDomain.CredentialTable) error {
	plaintext, err := json.Marshal(table)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode credential table")
	}

	envelope, err := r.cipher.Seal(plaintext)
	if err != nil {
		return apperrors.Wrap(err, "failed to seal credential table")
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "failed to encode credential envelope")
	}

	if err := securityService.WriteFileAtomic(r.path, data, 0o600); err != nil {
		return apperrors.Wrap(err, "failed to persist credential store")
	}
	return nil
}

// Remove deletes the persisted table. Used only by the explicit
// reset-key-store flow; missing files are not an error.
func (r *FileCredentialRepository) Remove() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(err, "failed to remove credential store")
	}
	return nil
}
