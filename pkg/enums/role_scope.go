package enums

import "fmt"

// RoleScope says whether a role applies system-wide or to one franchise.
type RoleScope string

const (
	RoleScopeGlobal    RoleScope = "GLOBAL"
	RoleScopeFranchise RoleScope = "FRANCHISE"
)

var validRoleScopes = []RoleScope{
	RoleScopeGlobal,
	RoleScopeFranchise,
}

// String implements fmt.Stringer.
func (s RoleScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RoleScope.
func (s RoleScope) IsValid() bool {
	for _, candidate := range validRoleScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRoleScope converts raw input into a RoleScope.
func ParseRoleScope(value string) (RoleScope, error) {
	for _, candidate := range validRoleScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role scope %q", value)
}
