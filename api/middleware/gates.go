package middleware

import (
	"net/http"
	"slices"

	"github.com/franchisehub/backoffice/api/responses"
	pkgAuth "github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/enums"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	msgSelectContext     = "Please select a context first"
	msgContextMissing    = "Context not selected"
	msgAccessDenied      = "Access denied. You are not allowed to perform this action."
	msgNoFranchiseAccess = "You do not have access to this franchise"
)

// Gates builds the per-route access-control middleware. Each gate runs
// after Authenticate and stops the chain with 403 on failure.
type Gates struct {
	logg    *logger.Logger
	metrics *metrics.SessionMetrics
}

// NewGates constructs the gate factory.
func NewGates(logg *logger.Logger, m *metrics.SessionMetrics) *Gates {
	return &Gates{logg: logg, metrics: m}
}

type check func(r *http.Request) (ok bool, message string)

func (g *Gates) gate(name string, c check) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, msg := c(r); !ok {
				g.metrics.IncGateDenied(name)
				responses.WriteError(r.Context(), g.logg, w, pkgerrors.New(pkgerrors.CodeForbidden, msg))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireContext demands a selected context.
func (g *Gates) RequireContext() func(http.Handler) http.Handler {
	return g.gate("require_context", func(r *http.Request) (bool, string) {
		return UserContextFromContext(r.Context()) != nil, msgSelectContext
	})
}

// RequireScope demands the selected context has scope.
func (g *Gates) RequireScope(scope enums.RoleScope) func(http.Handler) http.Handler {
	return g.gate("require_scope", func(r *http.Request) (bool, string) {
		uc := UserContextFromContext(r.Context())
		return uc != nil && uc.Scope == scope, msgAccessDenied
	})
}

// RequireRole demands the selected context's role is one of roles.
func (g *Gates) RequireRole(roles ...enums.BaseRole) func(http.Handler) http.Handler {
	return g.gate("require_role", func(r *http.Request) (bool, string) {
		uc := UserContextFromContext(r.Context())
		if uc == nil {
			return false, msgContextMissing
		}
		return slices.Contains(roles, uc.Role), msgAccessDenied
	})
}

// RequireRoleAndScope passes when any rule matches the selected context.
func (g *Gates) RequireRoleAndScope(rules []pkgAuth.AccessRule) func(http.Handler) http.Handler {
	return g.gate("require_role_and_scope", func(r *http.Request) (bool, string) {
		uc := UserContextFromContext(r.Context())
		if uc == nil {
			return false, msgContextMissing
		}
		return pkgAuth.AnyAllows(rules, uc), msgAccessDenied
	})
}

// RequireGlobalRole admits GLOBAL SUPER_ADMIN and ADMIN contexts.
func (g *Gates) RequireGlobalRole() func(http.Handler) http.Handler {
	return chain(
		g.RequireContext(),
		g.RequireScope(enums.RoleScopeGlobal),
		g.RequireRole(enums.BaseRoleSuperAdmin, enums.BaseRoleAdmin),
	)
}

// RequireMoreContext is RequireContext followed by RequireRoleAndScope.
func (g *Gates) RequireMoreContext(rules []pkgAuth.AccessRule) func(http.Handler) http.Handler {
	return chain(g.RequireContext(), g.RequireRoleAndScope(rules))
}

// RequireFranchiseAccess rejects FRANCHISE contexts whose franchise differs
// from the path parameter. GLOBAL contexts always pass.
func (g *Gates) RequireFranchiseAccess(param string) func(http.Handler) http.Handler {
	return g.gate("require_franchise_access", func(r *http.Request) (bool, string) {
		uc := UserContextFromContext(r.Context())
		if uc == nil {
			return false, msgContextMissing
		}
		if uc.IsGlobal() {
			return true, ""
		}
		id, err := uuid.Parse(chi.URLParam(r, param))
		if err != nil {
			return false, msgNoFranchiseAccess
		}
		return uc.SameFranchise(&id), msgNoFranchiseAccess
	})
}

// chain composes middleware so the first one runs outermost.
func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
