package repository

import (
	"context"
	"sync"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// MemoryCredentialRepository keeps the credential table in process memory.
// Used when no storage directory is configured: keys survive for the life of
// the process only.
type MemoryCredentialRepository struct {
	mu    sync.RWMutex
	table *securityDomain.CredentialTable
}

// NewMemoryCredentialRepository creates an empty in-memory repository.
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{}
}

// Load returns a deep copy of the stored table, or ErrStoreNotFound before
// the first Save.
func (r *MemoryCredentialRepository) Load(ctx context.Context) (*securityDomain.CredentialTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.table == nil {
		return nil, securityDomain.ErrStoreNotFound
	}
	return r.table.Clone(), nil
}

// Save stores a deep copy of the table.
func (r *MemoryCredentialRepository) Save(ctx context.Context, table *securityDomain.CredentialTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.table = table.Clone()
	return nil
}
