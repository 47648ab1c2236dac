package auth

import (
	"slices"

	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/samber/lo"
)

// AccessRule allows a selected context whose scope equals Scope and whose
// role is one of Roles.
type AccessRule struct {
	Scope enums.RoleScope
	Roles []enums.BaseRole
}

// Allows reports whether ctx satisfies the rule.
func (r AccessRule) Allows(ctx *UserContext) bool {
	if ctx == nil {
		return false
	}
	return ctx.Scope == r.Scope && slices.Contains(r.Roles, ctx.Role)
}

// AnyAllows reports whether at least one rule allows ctx.
func AnyAllows(rules []AccessRule, ctx *UserContext) bool {
	return lo.SomeBy(rules, func(r AccessRule) bool { return r.Allows(ctx) })
}

var (
	// SystemRules admits system administrators only.
	SystemRules = []AccessRule{
		{Scope: enums.RoleScopeGlobal, Roles: []enums.BaseRole{enums.BaseRoleSuperAdmin, enums.BaseRoleAdmin}},
	}

	// SystemAndFranchiseRules also admits franchise managers.
	SystemAndFranchiseRules = append(slices.Clone(SystemRules),
		AccessRule{Scope: enums.RoleScopeFranchise, Roles: []enums.BaseRole{enums.BaseRoleManager}},
	)
)
