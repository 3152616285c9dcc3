package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// SecretsFileName is the file under the storage directory holding the
// at-rest encryption key.
const SecretsFileName = "secrets.json"

// KeyMaterial is the long-lived 256-bit encryption key protecting the
// credential table. It is generated once, never rotated automatically, and
// losing it makes the table permanently undecryptable.
type KeyMaterial struct {
	Key       []byte
	CreatedAt time.Time
}

// secretsFile is the persisted layout of secrets.json. When Wrapped is false
// EncryptionKey holds 64 hex characters of raw key; when true it holds the
// base64 KMS-wrapped key.
type secretsFile struct {
	EncryptionKey string    `json:"encryptionKey"`
	CreatedAt     time.Time `json:"createdAt"`
	Wrapped       bool      `json:"wrapped,omitempty"`
}

// FileKeyStore loads and creates the persisted encryption key with owner-only
// file permissions. A nil wrapper stores the key in cleartext hex; a KMS
// wrapper stores it wrapped.
//
// Load never creates: on ErrKeyMaterialNotFound the caller decides explicitly
// whether to call CreateAndPersist. Auto-creating on a failed load would turn
// a corrupt key file into silent data loss.
type FileKeyStore struct {
	path    string
	wrapper KeyWrapper
}

// NewFileKeyStore creates a key store rooted at dir.
func NewFileKeyStore(dir string, wrapper KeyWrapper) *FileKeyStore {
	return &FileKeyStore{
		path:    filepath.Join(dir, SecretsFileName),
		wrapper: wrapper,
	}
}

// Load reads the persisted key material. Returns ErrKeyMaterialNotFound if
// the file does not exist and ErrKeyMaterialInvalid if it cannot be decoded.
func (s *FileKeyStore) Load(ctx context.Context) (*KeyMaterial, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, securityDomain.ErrKeyMaterialNotFound
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	var file secretsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, securityDomain.ErrKeyMaterialInvalid
	}

	var key []byte
	if file.Wrapped {
		if s.wrapper == nil {
			return nil, securityDomain.ErrKeyMaterialInvalid
		}
		wrapped, err := base64.StdEncoding.DecodeString(file.EncryptionKey)
		if err != nil {
			return nil, securityDomain.ErrKeyMaterialInvalid
		}
		key, err = s.wrapper.Unwrap(ctx, wrapped)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap key material: %w", err)
		}
	} else {
		key, err = hex.DecodeString(file.EncryptionKey)
		if err != nil {
			return nil, securityDomain.ErrKeyMaterialInvalid
		}
	}

	if len(key) != 32 {
		return nil, securityDomain.ErrKeyMaterialInvalid
	}

	return &KeyMaterial{Key: key, CreatedAt: file.CreatedAt}, nil
}

// CreateAndPersist generates 32 random bytes and writes them to secrets.json
// with mode 0600 via a temp-file rename. The new material is returned ready
// for use.
func (s *FileKeyStore) CreateAndPersist(ctx context.Context) (*KeyMaterial, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}

	file := secretsFile{CreatedAt: time.Now().UTC()}
	if s.wrapper != nil {
		wrapped, err := s.wrapper.Wrap(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to wrap key material: %w", err)
		}
		file.EncryptionKey = base64.StdEncoding.EncodeToString(wrapped)
		file.Wrapped = true
	} else {
		file.EncryptionKey = hex.EncodeToString(key)
	}

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode key file: %w", err)
	}

	if err := WriteFileAtomic(s.path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist key file: %w", err)
	}

	return &KeyMaterial{Key: key, CreatedAt: file.CreatedAt}, nil
}

// Remove deletes the persisted key file. Used only by the explicit
// reset-key-store flow; missing files are not an error.
func (s *FileKeyStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove key file: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it into place, so a crash never leaves a half-written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
