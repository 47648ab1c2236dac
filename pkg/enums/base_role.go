package enums

import "fmt"

// BaseRole is the code of a seeded role.
type BaseRole string

const (
	BaseRoleSuperAdmin BaseRole = "SUPER_ADMIN"
	BaseRoleAdmin      BaseRole = "ADMIN"
	BaseRoleManager    BaseRole = "MANAGER"
	BaseRoleStaff      BaseRole = "STAFF"
	BaseRoleShipper    BaseRole = "SHIPPER"
	BaseRoleUser       BaseRole = "USER"
)

var validBaseRoles = []BaseRole{
	BaseRoleSuperAdmin,
	BaseRoleAdmin,
	BaseRoleManager,
	BaseRoleStaff,
	BaseRoleShipper,
	BaseRoleUser,
}

// String implements fmt.Stringer.
func (r BaseRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known BaseRole.
func (r BaseRole) IsValid() bool {
	for _, candidate := range validBaseRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// DefaultScope returns the scope the role is seeded with.
func (r BaseRole) DefaultScope() RoleScope {
	switch r {
	case BaseRoleSuperAdmin, BaseRoleAdmin:
		return RoleScopeGlobal
	default:
		return RoleScopeFranchise
	}
}

// ParseBaseRole converts raw input into a BaseRole.
func ParseBaseRole(value string) (BaseRole, error) {
	for _, candidate := range validBaseRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid base role %q", value)
}
