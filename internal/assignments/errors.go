package assignments

import (
	"errors"

	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
)

var (
	ErrNotFound               = errors.New("assignment not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrRoleNotFound           = errors.New("role not found")
	ErrFranchiseNotFound      = errors.New("franchise not found")
	ErrScopeMismatch          = errors.New("role scope does not match assignment")
	ErrDuplicateAssignment    = errors.New("duplicate assignment")
	ErrDuplicateGlobal        = errors.New("duplicate global assignment")
	ErrNoChange               = errors.New("assignment unchanged")
	ErrCrossScopeUpdate       = errors.New("role change crosses scope boundary")
	ErrSelfLockout            = errors.New("cannot remove own global assignment")
	ErrRestoreWouldDuplicate  = errors.New("restore would duplicate assignment")
	ErrForeignFranchiseAccess = errors.New("assignment belongs to another franchise")
)

const (
	msgUserNotFound            = "User not found"
	msgRoleNotFound            = "Role not found"
	msgFranchiseNotFound       = "Franchise not found"
	msgGlobalWithFranchise     = "GLOBAL role must not be assigned to a franchise"
	msgFranchiseWithout        = "FRANCHISE role must be assigned to a franchise"
	msgDuplicateAssignment     = "User already has a role in this franchise or globally"
	msgDuplicateGlobal         = "User already has a global role"
	msgNoChange                = "No data to update"
	msgCannotChangeToGlobal    = "Cannot change a franchise assignment to a GLOBAL role"
	msgCannotChangeToFranchise = "Cannot change a global assignment to a FRANCHISE role"
	msgSelfLockout             = "You cannot remove your own global role"
	msgRestoreWouldDuplicate   = "User already has a role in this franchise"
	msgNotFound                = "Item not found"
	msgNotFoundOrRestored      = "Item not found or already restored"
)

// fieldError wraps sentinel as a 400 whose single detail names field.
func fieldError(sentinel error, field, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, sentinel, message).
		WithDetails([]pkgerrors.FieldError{{Field: field, Message: message}})
}

func notFoundError(message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, message)
}

func duplicateError(franchiseScoped bool) error {
	if franchiseScoped {
		return fieldError(ErrDuplicateAssignment, "franchise_id", msgDuplicateAssignment)
	}
	return fieldError(ErrDuplicateGlobal, "user_id", msgDuplicateGlobal)
}
