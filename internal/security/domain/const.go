// Package domain defines the security manager's domain models and business rules.
// Implements API-key credentials, role-based access control, session token
// claims, and security event records.
package domain

// Role is a named bundle of permissions assigned to an API key.
type Role string

const (
	// RoleViewer has read-only access to instance and configuration data.
	RoleViewer Role = "viewer"

	// RoleOperator extends viewer with instance management.
	RoleOperator Role = "operator"

	// RoleAdmin extends operator with configuration and discovery management.
	RoleAdmin Role = "admin"
)

// Permission is a string capability checked against a principal's resolved set.
type Permission string

const (
	PermissionReadInstances   Permission = "read:instances"
	PermissionReadConfig      Permission = "read:config"
	PermissionManageInstances Permission = "manage:instances"
	PermissionManageConfig    Permission = "manage:config"
	PermissionManageDiscovery Permission = "manage:discovery"
)

// SecretPrefix is the fixed marker every API-key secret starts with.
const SecretPrefix = "sk_"

// SecretLength is the total length of a plain API-key secret:
// the prefix plus 64 hex characters encoding 32 random bytes.
const SecretLength = len(SecretPrefix) + 64

// PreviewLength is the number of leading secret characters kept as a
// non-reversible preview in redacted listings.
const PreviewLength = 10

// CredentialTableVersion is the current on-disk schema version of the
// serialized credential table.
const CredentialTableVersion = 1
