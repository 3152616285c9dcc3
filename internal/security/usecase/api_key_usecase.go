// Package usecase implements business logic orchestration for API-key and
// session token operations.
package usecase

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	apperrors "github.com/stellation/cloudview/internal/errors"
	securityDomain "github.com/stellation/cloudview/internal/security/domain"
	securityService "github.com/stellation/cloudview/internal/security/service"
)

// bootstrapUsername is the owner of the seeded key on a fresh store.
const bootstrapUsername = "admin"

// apiKeyUseCase implements APIKeyUseCase. The credential table lives in
// memory and is the single source of truth; every mutation happens under one
// mutex and is written back through the repository, so concurrent creates and
// revokes cannot interleave partial states.
type apiKeyUseCase struct {
	mu             sync.Mutex
	table          *securityDomain.CredentialTable
	credentialRepo CredentialRepository
	secretService  securityService.SecretService
	lockout        *securityService.LockoutTracker
	events         *securityService.EventLog
	logger         *slog.Logger
	saveTimeout    time.Duration

	// mutationSeq is incremented under mu on every table mutation, so a
	// snapshot cloned at sequence n contains every mutation up to n.
	mutationSeq uint64

	// persistMu serializes repository writes; persistedSeq (guarded by it)
	// is the sequence of the snapshot last written.
	persistMu    sync.Mutex
	persistedSeq uint64

	// saveWG tracks in-flight background persists; Close drains them.
	saveWG sync.WaitGroup
}

// persist writes a snapshot through the repository, keeping writes serialized
// and monotonic: a snapshot is skipped when one taken at a later sequence has
// already landed, so a slow background save can never revert an acknowledged
// mutation on disk. Skipping reports success because the persisted state
// already contains every mutation the skipped snapshot carried.
func (a *apiKeyUseCase) persist(
	ctx context.Context,
	snapshot *securityDomain.CredentialTable,
	seq uint64,
) error {
	a.persistMu.Lock()
	defer a.persistMu.Unlock()

	if seq <= a.persistedSeq {
		return nil
	}
	if err := a.credentialRepo.Save(ctx, snapshot); err != nil {
		return err
	}
	a.persistedSeq = seq
	return nil
}

// snapshotLocked clones the table and stamps the next mutation sequence.
// Callers must hold mu and must have just mutated the table.
func (a *apiKeyUseCase) snapshotLocked() (*securityDomain.CredentialTable, uint64) {
	a.mutationSeq++
	return a.table.Clone(), a.mutationSeq
}

// Init loads the persisted table. A missing store is seeded with a default
// admin key whose plain secret is logged exactly once; a store that exists
// but fails integrity checks aborts startup so the operator decides what to
// do with it.
func (a *apiKeyUseCase) Init(ctx context.Context) error {
	table, err := a.credentialRepo.Load(ctx)
	if err == nil {
		a.mu.Lock()
		a.table = table
		a.mu.Unlock()
		return nil
	}

	if !apperrors.Is(err, securityDomain.ErrStoreNotFound) {
		return apperrors.Wrap(err, "failed to load credential store")
	}

	a.mu.Lock()
	a.table = securityDomain.NewCredentialTable()
	a.mu.Unlock()

	output, err := a.Create(ctx, &securityDomain.CreateAPIKeyInput{
		Username:    bootstrapUsername,
		Role:        securityDomain.RoleAdmin,
		Description: "bootstrap admin key",
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to seed initial admin key")
	}

	a.logger.Warn("no credential store found, created initial admin API key; "+
		"this secret is shown once and cannot be recovered",
		slog.String("username", bootstrapUsername),
		slog.String("api_key", output.PlainSecret),
	)
	return nil
}

// Create generates and persists a new API key. The insert is rolled back when
// the table cannot be persisted, so memory never claims a key the store lost.
func (a *apiKeyUseCase) Create(
	ctx context.Context,
	createInput *securityDomain.CreateAPIKeyInput,
) (*securityDomain.CreateAPIKeyOutput, error) {
	plainSecret, verificationHash, err := a.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	record := &securityDomain.APIKeyRecord{
		LookupID:         a.secretService.LookupID(plainSecret),
		Preview:          a.secretService.Preview(plainSecret),
		Username:         createInput.Username,
		Role:             createInput.Role,
		Description:      createInput.Description,
		VerificationHash: verificationHash,
		CreatedAt:        time.Now().UTC(),
		IsActive:         true,
	}

	a.mu.Lock()
	a.table.Keys[record.LookupID] = record
	snapshot, seq := a.snapshotLocked()
	a.mu.Unlock()

	if err := a.persist(ctx, snapshot, seq); err != nil {
		a.mu.Lock()
		delete(a.table.Keys, record.LookupID)
		a.mu.Unlock()
		return nil, err
	}

	a.events.Emit(securityDomain.EventAPIKeyCreated, map[string]any{
		"username":   record.Username,
		"role":       string(record.Role),
		"keyPreview": record.Preview,
	})

	return &securityDomain.CreateAPIKeyOutput{
		PlainSecret: plainSecret,
		Record:      record.Redacted(),
	}, nil
}

// Validate authenticates a presented secret. The lockout gate runs before
// anything else: a locked identifier is rejected without consulting the
// table, regardless of credential validity.
func (a *apiKeyUseCase) Validate(
	ctx context.Context,
	presentedSecret string,
) (*securityDomain.Principal, error) {
	lookupID := a.secretService.LookupID(presentedSecret)

	if a.lockout.IsLocked(lookupID) {
		a.events.Emit(securityDomain.EventAuthFailed, map[string]any{
			"reason": "identifier locked",
		})
		return nil, securityDomain.ErrIdentifierLocked
	}

	if !a.secretService.ValidFormat(presentedSecret) {
		return nil, a.rejectAttempt(lookupID, "malformed secret")
	}

	a.mu.Lock()
	record, ok := a.table.Keys[lookupID]
	a.mu.Unlock()

	if !ok {
		return nil, a.rejectAttempt(lookupID, "unknown key")
	}
	if !record.IsActive {
		return nil, a.rejectAttempt(lookupID, "key revoked")
	}

	// the stored hash is the authentication source of truth, the lookup
	// index only locates the record
	if !a.secretService.VerifySecret(presentedSecret, record.VerificationHash) {
		return nil, a.rejectAttempt(lookupID, "verification failed")
	}

	a.lockout.RecordAttempt(lookupID, true)
	a.touchLastUsed(ctx, lookupID)

	a.events.Emit(securityDomain.EventAuthSuccess, map[string]any{
		"username": record.Username,
		"role":     string(record.Role),
	})

	return securityDomain.NewPrincipal(record.Username, record.Role), nil
}

// rejectAttempt records a failed attempt, emits an auth_failed event, and
// returns the single indistinguishable credential error.
func (a *apiKeyUseCase) rejectAttempt(lookupID, reason string) error {
	a.lockout.RecordAttempt(lookupID, false)
	a.events.Emit(securityDomain.EventAuthFailed, map[string]any{
		"reason": reason,
	})
	return securityDomain.ErrInvalidCredentials
}

// touchLastUsed stamps the record and persists a snapshot in the background.
// The timestamp is usage telemetry: losing it must never fail a validation,
// so errors are logged and dropped.
func (a *apiKeyUseCase) touchLastUsed(ctx context.Context, lookupID string) {
	now := time.Now().UTC()

	a.mu.Lock()
	record, ok := a.table.Keys[lookupID]
	if !ok {
		a.mu.Unlock()
		return
	}
	record.LastUsedAt = &now
	snapshot, seq := a.snapshotLocked()
	a.mu.Unlock()

	a.saveWG.Add(1)
	go func() {
		defer a.saveWG.Done()

		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.saveTimeout)
		defer cancel()

		if err := a.persist(saveCtx, snapshot, seq); err != nil {
			a.logger.Warn("failed to persist last-used timestamp",
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Revoke deactivates the record matching the presented secret. The record is
// kept for audit visibility in listings; the deactivation is rolled back when
// it cannot be persisted.
func (a *apiKeyUseCase) Revoke(ctx context.Context, presentedSecret string) (bool, error) {
	lookupID := a.secretService.LookupID(presentedSecret)

	a.mu.Lock()
	record, ok := a.table.Keys[lookupID]
	if !ok {
		a.mu.Unlock()
		return false, nil
	}

	wasActive := record.IsActive
	record.IsActive = false
	snapshot, seq := a.snapshotLocked()
	a.mu.Unlock()

	if err := a.persist(ctx, snapshot, seq); err != nil {
		a.mu.Lock()
		record.IsActive = wasActive
		a.mu.Unlock()
		return false, err
	}

	a.events.Emit(securityDomain.EventAPIKeyRevoked, map[string]any{
		"username":   record.Username,
		"keyPreview": record.Preview,
	})
	return true, nil
}

// List returns redacted metadata for every record, oldest first.
func (a *apiKeyUseCase) List(ctx context.Context) ([]*securityDomain.RedactedAPIKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	redacted := make([]*securityDomain.RedactedAPIKey, 0, len(a.table.Keys))
	for _, record := range a.table.Keys {
		redacted = append(redacted, record.Redacted())
	}
	sort.Slice(redacted, func(i, j int) bool {
		if redacted[i].CreatedAt.Equal(redacted[j].CreatedAt) {
			return redacted[i].Preview < redacted[j].Preview
		}
		return redacted[i].CreatedAt.Before(redacted[j].CreatedAt)
	})
	return redacted, nil
}

// Close waits for in-flight background persists to finish, or gives up when
// the context expires. No new validations should be served once called.
func (a *apiKeyUseCase) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.saveWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), "timed out waiting for pending credential saves")
	}
}

// NewAPIKeyUseCase creates an APIKeyUseCase with the provided dependencies.
// Init must be called before any other operation.
func NewAPIKeyUseCase(
	credentialRepo CredentialRepository,
	secretService securityService.SecretService,
	lockout *securityService.LockoutTracker,
	events *securityService.EventLog,
	logger *slog.Logger,
	saveTimeout time.Duration,
) APIKeyUseCase {
	return &apiKeyUseCase{
		table:          securityDomain.NewCredentialTable(),
		credentialRepo: credentialRepo,
		secretService:  secretService,
		lockout:        lockout,
		events:         events,
		logger:         logger,
		saveTimeout:    saveTimeout,
	}
}
