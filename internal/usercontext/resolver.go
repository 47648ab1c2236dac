// Package usercontext resolves the contexts a user can act under.
package usercontext

import (
	"context"
	"fmt"

	"github.com/franchisehub/backoffice/internal/assignments"
	"github.com/franchisehub/backoffice/internal/franchises"
	"github.com/franchisehub/backoffice/internal/roles"
	"github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type assignmentLister interface {
	FindAllByUser(ctx context.Context, userID uuid.UUID) ([]assignments.Assignment, error)
}

type roleLookup interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]roles.Summary, error)
}

type franchiseLookup interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]franchises.Summary, error)
}

// Resolver builds UserContext lists from live assignments.
type Resolver struct {
	assignments assignmentLister
	roles       roleLookup
	franchises  franchiseLookup
	logg        *logger.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(a assignmentLister, r roleLookup, f franchiseLookup, logg *logger.Logger) (*Resolver, error) {
	if a == nil || r == nil || f == nil {
		return nil, fmt.Errorf("usercontext: assignments, roles and franchises are required")
	}
	return &Resolver{assignments: a, roles: r, franchises: f, logg: logg}, nil
}

// GetUserContexts returns one context per live assignment of userID.
// Assignments whose role is gone are dropped; a missing franchise leaves
// the franchise name nil. GLOBAL roles never carry a franchise.
func (r *Resolver) GetUserContexts(ctx context.Context, userID uuid.UUID) ([]auth.UserContext, error) {
	rows, err := r.assignments.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []auth.UserContext{}, nil
	}

	roleIDs := lo.Uniq(lo.Map(rows, func(a assignments.Assignment, _ int) uuid.UUID { return a.RoleID }))
	roleList, err := r.roles.GetByIDs(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	roleByID := lo.KeyBy(roleList, func(s roles.Summary) uuid.UUID { return s.ID })

	franchiseIDs := lo.Uniq(lo.FilterMap(rows, func(a assignments.Assignment, _ int) (uuid.UUID, bool) {
		role, ok := roleByID[a.RoleID]
		if !ok || role.Scope == enums.RoleScopeGlobal || a.FranchiseID == nil {
			return uuid.Nil, false
		}
		return *a.FranchiseID, true
	}))
	franchiseByID := map[uuid.UUID]franchises.Summary{}
	if len(franchiseIDs) > 0 {
		found, err := r.franchises.GetByIDs(ctx, franchiseIDs)
		if err != nil {
			return nil, err
		}
		franchiseByID = lo.KeyBy(found, func(s franchises.Summary) uuid.UUID { return s.ID })
	}

	contexts := make([]auth.UserContext, 0, len(rows))
	for _, a := range rows {
		role, ok := roleByID[a.RoleID]
		if !ok {
			r.warnDangling(ctx, a)
			continue
		}
		uc := auth.UserContext{Role: role.Code, Scope: role.Scope}
		if role.Scope != enums.RoleScopeGlobal && a.FranchiseID != nil {
			id := *a.FranchiseID
			uc.FranchiseID = &id
			if f, ok := franchiseByID[id]; ok {
				uc.FranchiseName = lo.ToPtr(f.Name)
			}
		}
		contexts = append(contexts, uc)
	}
	return contexts, nil
}

// Match returns the context of userID that targets franchiseID, or the
// GLOBAL context when franchiseID is nil.
func (r *Resolver) Match(ctx context.Context, userID uuid.UUID, franchiseID *uuid.UUID) (*auth.UserContext, bool, error) {
	contexts, err := r.GetUserContexts(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	found, ok := lo.Find(contexts, func(c auth.UserContext) bool { return c.SameFranchise(franchiseID) })
	if !ok {
		return nil, false, nil
	}
	return &found, true, nil
}

func (r *Resolver) warnDangling(ctx context.Context, a assignments.Assignment) {
	if r.logg == nil {
		return
	}
	ctx = r.logg.WithFields(ctx, map[string]any{
		"assignment_id": a.ID.String(),
		"role_id":       a.RoleID.String(),
	})
	r.logg.Warn(ctx, "usercontext.role_missing")
}
