// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/hex"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/stellation/cloudview/internal/errors"
	securityDomain "github.com/stellation/cloudview/internal/security/domain"
)

// usernameRegex allows short, log-safe account names.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]{0,63}$`)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string contains non-whitespace content.
var NotBlank = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_not_blank_type", "must be a string")
	}
	if s != "" && strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}
	return nil
})

// Username validates account name format.
var Username = validation.NewStringRuleWithError(
	usernameRegex.MatchString,
	validation.NewError(
		"validation_username",
		"must start with a letter or digit and contain only letters, digits, dots, dashes, or underscores",
	),
)

// Role validates that a string names a role from the static role table.
var Role = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_role_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := securityDomain.ParseRole(s); err != nil {
		return validation.NewError("validation_role", "must be one of: viewer, operator, admin")
	}
	return nil
})

// APIKeySecret validates the shape of a presented API-key secret without
// touching the credential store.
var APIKeySecret = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_api_key_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if len(s) != securityDomain.SecretLength || !strings.HasPrefix(s, securityDomain.SecretPrefix) {
		return validation.NewError("validation_api_key", "must be a well-formed API key secret")
	}
	if _, err := hex.DecodeString(s[len(securityDomain.SecretPrefix):]); err != nil {
		return validation.NewError("validation_api_key", "must be a well-formed API key secret")
	}
	return nil
})
