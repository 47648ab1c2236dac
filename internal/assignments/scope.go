package assignments

import (
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/google/uuid"
)

// checkScope enforces that GLOBAL roles carry no franchise and FRANCHISE
// roles carry one.
func checkScope(scope enums.RoleScope, franchiseID *uuid.UUID) error {
	switch scope {
	case enums.RoleScopeGlobal:
		if franchiseID != nil {
			return fieldError(ErrScopeMismatch, "franchise_id", msgGlobalWithFranchise)
		}
	case enums.RoleScopeFranchise:
		if franchiseID == nil {
			return fieldError(ErrScopeMismatch, "franchise_id", msgFranchiseWithout)
		}
	default:
		return fieldError(ErrScopeMismatch, "role_id", "Role has an unknown scope")
	}
	return nil
}

// checkScopeChange rejects a role change that would move an assignment
// across the GLOBAL/FRANCHISE boundary.
func checkScopeChange(newScope enums.RoleScope, global bool) error {
	if global && newScope != enums.RoleScopeGlobal {
		return fieldError(ErrCrossScopeUpdate, "role_id", msgCannotChangeToFranchise)
	}
	if !global && newScope != enums.RoleScopeFranchise {
		return fieldError(ErrCrossScopeUpdate, "role_id", msgCannotChangeToGlobal)
	}
	return nil
}
