package domain

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies a security event for downstream monitoring.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Security event types emitted by the core.
const (
	EventAuthSuccess          = "auth_success"
	EventAuthFailed           = "auth_failed"
	EventAuthorizationFailed  = "authorization_failed"
	EventAccountLocked        = "account_locked"
	EventSuspiciousActivity   = "suspicious_activity"
	EventAPIKeyCreated        = "api_key_created"
	EventAPIKeyRevoked        = "api_key_revoked"
	EventRateLimitExceeded    = "rate_limit_exceeded"
	EventCredentialValidation = "credential_validation"
)

// eventSeverities is the fixed eventType → severity table. Unknown event
// types default to info.
var eventSeverities = map[string]Severity{
	EventAuthSuccess:          SeverityInfo,
	EventAuthFailed:           SeverityWarning,
	EventAuthorizationFailed:  SeverityWarning,
	EventAccountLocked:        SeverityWarning,
	EventSuspiciousActivity:   SeverityCritical,
	EventAPIKeyCreated:        SeverityInfo,
	EventAPIKeyRevoked:        SeverityWarning,
	EventRateLimitExceeded:    SeverityWarning,
	EventCredentialValidation: SeverityInfo,
}

// SeverityFor resolves the severity of an event type from the fixed table.
func SeverityFor(eventType string) Severity {
	if severity, ok := eventSeverities[eventType]; ok {
		return severity
	}
	return SeverityInfo
}

// SecurityEvent is one structured, severity-tagged audit record. Events are
// ephemeral: the core produces them, the injected sink owns delivery.
type SecurityEvent struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"eventType"`
	Details   map[string]any `json:"details,omitempty"`
	Severity  Severity       `json:"severity"`
}
