package domain

// roleTable is the static role → permission-set mapping, fixed at process
// start. Adding roles requires a redeploy; there is no runtime mutation.
var roleTable = map[Role][]Permission{
	RoleViewer: {
		PermissionReadInstances,
		PermissionReadConfig,
	},
	RoleOperator: {
		PermissionReadInstances,
		PermissionReadConfig,
		PermissionManageInstances,
	},
	RoleAdmin: {
		PermissionReadInstances,
		PermissionReadConfig,
		PermissionManageInstances,
		PermissionManageConfig,
		PermissionManageDiscovery,
	},
}

// ParseRole validates a role name against the static table.
func ParseRole(name string) (Role, error) {
	role := Role(name)
	if _, ok := roleTable[role]; !ok {
		return "", ErrInvalidRole
	}
	return role, nil
}

// PermissionsFor returns a copy of the permission set for the given role.
// Unknown roles resolve to an empty set.
func PermissionsFor(role Role) []Permission {
	permissions, ok := roleTable[role]
	if !ok {
		return []Permission{}
	}
	out := make([]Permission, len(permissions))
	copy(out, permissions)
	return out
}

// NewPrincipal builds a principal with permissions resolved from the role table.
func NewPrincipal(username string, role Role) *Principal {
	return &Principal{
		Username:    username,
		Role:        role,
		Permissions: PermissionsFor(role),
	}
}

// CheckPermission verifies the principal holds the permission, returning
// ErrPermissionDenied otherwise.
func CheckPermission(principal *Principal, permission Permission) error {
	if principal == nil || !principal.HasPermission(permission) {
		return ErrPermissionDenied
	}
	return nil
}
