package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/stellation/cloudview/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("wraps as invalid input", func(t *testing.T) {
		err := WrapValidationError(errors.New("username: cannot be blank"))
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		assert.Contains(t, err.Error(), "username")
	})
}

func TestUsername(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"simple", "alice", false},
		{"with separators", "svc.dashboard_ro-1", false},
		{"single character", "a", false},
		{"leading dot", ".alice", true},
		{"spaces", "alice smith", true},
		{"too long", strings.Repeat("a", 65), true},
		{"control characters", "alice\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Username.Validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"viewer", "viewer", false},
		{"operator", "operator", false},
		{"admin", "admin", false},
		{"empty left to Required", "", false},
		{"unknown role", "superuser", true},
		{"case sensitive", "Admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Role.Validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAPIKeySecret(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"well formed", "sk_" + strings.Repeat("0123456789abcdef", 4), false},
		{"empty left to Required", "", false},
		{"missing prefix", strings.Repeat("0123456789abcdef", 4), true},
		{"too short", "sk_abc", true},
		{"non-hex body", "sk_" + strings.Repeat("z", 64), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := APIKeySecret.Validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
