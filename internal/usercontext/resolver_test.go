package usercontext

import (
	"context"
	"errors"
	"testing"

	"github.com/franchisehub/backoffice/internal/assignments"
	"github.com/franchisehub/backoffice/internal/franchises"
	"github.com/franchisehub/backoffice/internal/roles"
	"github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssignments struct {
	rows []assignments.Assignment
	err  error
}

func (s stubAssignments) FindAllByUser(context.Context, uuid.UUID) ([]assignments.Assignment, error) {
	return s.rows, s.err
}

type stubRoles struct {
	byID  map[uuid.UUID]roles.Summary
	calls int
}

func (s *stubRoles) GetByIDs(_ context.Context, ids []uuid.UUID) ([]roles.Summary, error) {
	s.calls++
	out := []roles.Summary{}
	for _, id := range ids {
		if r, ok := s.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubFranchises struct {
	byID  map[uuid.UUID]franchises.Summary
	calls int
	seen  []uuid.UUID
}

func (s *stubFranchises) GetByIDs(_ context.Context, ids []uuid.UUID) ([]franchises.Summary, error) {
	s.calls++
	s.seen = append(s.seen, ids...)
	out := []franchises.Summary{}
	for _, id := range ids {
		if f, ok := s.byID[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func TestGetUserContexts(t *testing.T) {
	adminRole := roles.Summary{ID: uuid.New(), Code: enums.BaseRoleAdmin, Scope: enums.RoleScopeGlobal}
	managerRole := roles.Summary{ID: uuid.New(), Code: enums.BaseRoleManager, Scope: enums.RoleScopeFranchise}
	hn := franchises.Summary{ID: uuid.New(), Code: "HN01", Name: "Ha Noi"}
	gone := uuid.New()
	userID := uuid.New()

	rows := []assignments.Assignment{
		{ID: uuid.New(), UserID: userID, RoleID: adminRole.ID},
		{ID: uuid.New(), UserID: userID, RoleID: managerRole.ID, FranchiseID: &hn.ID},
		{ID: uuid.New(), UserID: userID, RoleID: managerRole.ID, FranchiseID: &gone},
		{ID: uuid.New(), UserID: userID, RoleID: uuid.New(), FranchiseID: &hn.ID},
	}
	rolesStub := &stubRoles{byID: map[uuid.UUID]roles.Summary{adminRole.ID: adminRole, managerRole.ID: managerRole}}
	franchisesStub := &stubFranchises{byID: map[uuid.UUID]franchises.Summary{hn.ID: hn}}

	resolver, err := NewResolver(stubAssignments{rows: rows}, rolesStub, franchisesStub, nil)
	require.NoError(t, err)

	contexts, err := resolver.GetUserContexts(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, contexts, 3)

	assert.Equal(t, auth.UserContext{Role: enums.BaseRoleAdmin, Scope: enums.RoleScopeGlobal}, contexts[0])
	assert.Equal(t, hn.ID, *contexts[1].FranchiseID)
	assert.Equal(t, "Ha Noi", lo.FromPtr(contexts[1].FranchiseName))
	assert.Equal(t, gone, *contexts[2].FranchiseID)
	assert.Nil(t, contexts[2].FranchiseName)

	assert.Equal(t, 1, rolesStub.calls)
	assert.Equal(t, 1, franchisesStub.calls)
	assert.ElementsMatch(t, []uuid.UUID{hn.ID, gone}, franchisesStub.seen)
}

func TestGetUserContextsEmpty(t *testing.T) {
	rolesStub := &stubRoles{}
	franchisesStub := &stubFranchises{}
	resolver, err := NewResolver(stubAssignments{}, rolesStub, franchisesStub, nil)
	require.NoError(t, err)

	contexts, err := resolver.GetUserContexts(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, contexts)
	assert.Empty(t, contexts)
	assert.Zero(t, rolesStub.calls)
}

func TestGetUserContextsSkipsFranchiseLookupForGlobalOnly(t *testing.T) {
	adminRole := roles.Summary{ID: uuid.New(), Code: enums.BaseRoleSuperAdmin, Scope: enums.RoleScopeGlobal}
	franchisesStub := &stubFranchises{}
	resolver, err := NewResolver(
		stubAssignments{rows: []assignments.Assignment{{ID: uuid.New(), RoleID: adminRole.ID}}},
		&stubRoles{byID: map[uuid.UUID]roles.Summary{adminRole.ID: adminRole}},
		franchisesStub,
		nil,
	)
	require.NoError(t, err)

	contexts, err := resolver.GetUserContexts(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, contexts, 1)
	assert.Zero(t, franchisesStub.calls)
}

func TestGetUserContextsDropsFranchiseForGlobalRoles(t *testing.T) {
	adminRole := roles.Summary{ID: uuid.New(), Code: enums.BaseRoleAdmin, Scope: enums.RoleScopeGlobal}
	stray := franchises.Summary{ID: uuid.New(), Code: "SG01", Name: "Sai Gon"}
	franchisesStub := &stubFranchises{byID: map[uuid.UUID]franchises.Summary{stray.ID: stray}}
	resolver, err := NewResolver(
		stubAssignments{rows: []assignments.Assignment{{ID: uuid.New(), RoleID: adminRole.ID, FranchiseID: &stray.ID}}},
		&stubRoles{byID: map[uuid.UUID]roles.Summary{adminRole.ID: adminRole}},
		franchisesStub,
		nil,
	)
	require.NoError(t, err)

	contexts, err := resolver.GetUserContexts(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, contexts, 1)
	assert.Nil(t, contexts[0].FranchiseID)
	assert.Nil(t, contexts[0].FranchiseName)
	assert.Zero(t, franchisesStub.calls)
}

func TestMatch(t *testing.T) {
	adminRole := roles.Summary{ID: uuid.New(), Code: enums.BaseRoleAdmin, Scope: enums.RoleScopeGlobal}
	staffRole := roles.Summary{ID: uuid.New(), Code: enums.BaseRoleStaff, Scope: enums.RoleScopeFranchise}
	sg := uuid.New()
	resolver, err := NewResolver(
		stubAssignments{rows: []assignments.Assignment{
			{ID: uuid.New(), RoleID: adminRole.ID},
			{ID: uuid.New(), RoleID: staffRole.ID, FranchiseID: &sg},
		}},
		&stubRoles{byID: map[uuid.UUID]roles.Summary{adminRole.ID: adminRole, staffRole.ID: staffRole}},
		&stubFranchises{},
		nil,
	)
	require.NoError(t, err)
	ctx := context.Background()

	global, ok, err := resolver.Match(ctx, uuid.New(), nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, enums.BaseRoleAdmin, global.Role)

	franchise, ok, err := resolver.Match(ctx, uuid.New(), &sg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, enums.BaseRoleStaff, franchise.Role)

	other := uuid.New()
	_, ok, err = resolver.Match(ctx, uuid.New(), &other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUserContextsPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	resolver, err := NewResolver(stubAssignments{err: boom}, &stubRoles{}, &stubFranchises{}, nil)
	require.NoError(t, err)

	_, err = resolver.GetUserContexts(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
}
