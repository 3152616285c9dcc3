package service

import (
	"sync"
	"time"

	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// attemptState tracks consecutive failures for one identifier. Entries are
// created lazily on first failure and deleted on success or lock expiry.
type attemptState struct {
	count       int
	lastAttempt time.Time
	lockedUntil time.Time
}

// LockoutTracker is the per-identifier failed-attempt counter and time-boxed
// lock state machine. Reaching maxAttempts consecutive failures locks the
// identifier for the configured duration and emits an account_locked event;
// any check after expiry transitions back to unlocked and drops the entry.
//
// All state is guarded by one mutex, so concurrent RecordAttempt calls on the
// same identifier cannot lose updates.
type LockoutTracker struct {
	mu          sync.Mutex
	attempts    map[string]*attemptState
	maxAttempts int
	duration    time.Duration
	events      *EventLog
	now         func() time.Time
}

// NewLockoutTracker creates a tracker with the given threshold and lock
// duration. The event log may be nil in tests.
func NewLockoutTracker(maxAttempts int, duration time.Duration, events *EventLog) *LockoutTracker {
	return &LockoutTracker{
		attempts:    make(map[string]*attemptState),
		maxAttempts: maxAttempts,
		duration:    duration,
		events:      events,
		now:         time.Now,
	}
}

// RecordAttempt records the outcome of an authentication attempt and reports
// whether the attempt was accepted. A locked identifier rejects every attempt
// regardless of credential validity; success clears the counter outright.
func (t *LockoutTracker) RecordAttempt(identifier string, success bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lockedLocked(identifier) {
		return false
	}

	if success {
		delete(t.attempts, identifier)
		return true
	}

	state, ok := t.attempts[identifier]
	if !ok {
		state = &attemptState{}
		t.attempts[identifier] = state
	}

	state.count++
	state.lastAttempt = t.now().UTC()

	if state.count >= t.maxAttempts {
		state.lockedUntil = t.now().UTC().Add(t.duration)
		if t.events != nil {
			t.events.Emit(securityDomain.EventAccountLocked, map[string]any{
				"identifier":  identifier,
				"attempts":    state.count,
				"lockedUntil": state.lockedUntil,
			})
		}
	}

	return true
}

// IsLocked reports whether the identifier is currently locked. An expired
// lock is cleared as a side effect.
func (t *LockoutTracker) IsLocked(identifier string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lockedLocked(identifier)
}

// Reset removes any state for the identifier, unlocking it immediately.
func (t *LockoutTracker) Reset(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, identifier)
}

// lockedLocked checks lock state and expires stale locks. Callers hold t.mu.
func (t *LockoutTracker) lockedLocked(identifier string) bool {
	state, ok := t.attempts[identifier]
	if !ok || state.lockedUntil.IsZero() {
		return false
	}

	if t.now().UTC().After(state.lockedUntil) {
		delete(t.attempts, identifier)
		return false
	}

	return true
}
