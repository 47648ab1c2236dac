package assignments

import (
	"context"
	"sync"
	"testing"

	"github.com/franchisehub/backoffice/internal/audit"
	"github.com/franchisehub/backoffice/internal/franchises"
	"github.com/franchisehub/backoffice/internal/roles"
	"github.com/franchisehub/backoffice/internal/users"
	"github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/db/dbtest"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) Log(ctx context.Context, entry audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) actions() []enums.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Map(r.entries, func(e audit.Entry, _ int) enums.AuditAction { return e.Action })
}

type fixture struct {
	svc        *Service
	repo       *Repository
	audit      *recordingAudit
	client     *db.Client
	roleIDs    map[enums.BaseRole]uuid.UUID
	franchises *franchises.Service
	users      *users.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	client := dbtest.Open(t)

	rolesRepo := roles.NewRepository(client.DB())
	roleSvc, err := roles.NewService(rolesRepo, nil)
	require.NoError(t, err)
	_, err = roleSvc.SeedDefaults(ctx)
	require.NoError(t, err)

	roleIDs := map[enums.BaseRole]uuid.UUID{}
	for _, def := range roles.Defaults {
		role, err := rolesRepo.FindByCode(ctx, def.Code)
		require.NoError(t, err)
		roleIDs[def.Code] = role.ID
	}

	rec := &recordingAudit{}
	franchiseSvc, err := franchises.NewService(franchises.NewRepository(client.DB()), rec)
	require.NoError(t, err)
	usersRepo := users.NewRepository(client.DB())
	assignmentsRepo := NewRepository(client.DB())

	svc, err := NewService(ServiceParams{
		Repo:       assignmentsRepo,
		Users:      usersRepo,
		Roles:      roleSvc,
		Franchises: franchiseSvc,
		Audit:      rec,
	})
	require.NoError(t, err)

	return &fixture{
		svc:        svc,
		repo:       assignmentsRepo,
		audit:      rec,
		client:     client,
		roleIDs:    roleIDs,
		franchises: franchiseSvc,
		users:      usersRepo,
	}
}

func (f *fixture) user(t *testing.T, email string) uuid.UUID {
	t.Helper()
	u, err := f.users.Create(context.Background(), users.CreateUserDTO{
		Email:        email,
		PasswordHash: "hash",
		Name:         email,
		IsVerified:   true,
	})
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) franchise(t *testing.T, code string) uuid.UUID {
	t.Helper()
	item, err := f.franchises.Create(context.Background(), franchises.CreateInput{Code: code, Name: "Branch " + code}, uuid.Nil)
	require.NoError(t, err)
	return item.ID
}

func fieldsOf(t *testing.T, err error) []pkgerrors.FieldError {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	return typed.Fields()
}

func TestCreateEnforcesUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.New()
	alice := f.user(t, "alice@example.com")
	hn := f.franchise(t, "HN01")
	sg := f.franchise(t, "SG01")

	global, err := f.svc.Create(ctx, CreateInput{UserID: alice, RoleID: f.roleIDs[enums.BaseRoleAdmin]}, actor)
	require.NoError(t, err)
	assert.Nil(t, global.FranchiseID)
	assert.Equal(t, enums.BaseRoleAdmin, global.RoleCode)
	assert.Equal(t, "alice@example.com", global.UserEmail)

	_, err = f.svc.Create(ctx, CreateInput{UserID: alice, RoleID: f.roleIDs[enums.BaseRoleSuperAdmin]}, actor)
	require.ErrorIs(t, err, ErrDuplicateGlobal)
	assert.Equal(t, []pkgerrors.FieldError{{Field: "user_id", Message: msgDuplicateGlobal}}, fieldsOf(t, err))

	manager, err := f.svc.Create(ctx, CreateInput{UserID: alice, RoleID: f.roleIDs[enums.BaseRoleManager], FranchiseID: &hn, Note: lo.ToPtr(" opening team ")}, actor)
	require.NoError(t, err)
	assert.Equal(t, "HN01", manager.FranchiseCode)
	assert.Equal(t, "opening team", manager.Note)

	_, err = f.svc.Create(ctx, CreateInput{UserID: alice, RoleID: f.roleIDs[enums.BaseRoleStaff], FranchiseID: &hn}, actor)
	require.ErrorIs(t, err, ErrDuplicateAssignment)
	assert.Equal(t, []pkgerrors.FieldError{{Field: "franchise_id", Message: msgDuplicateAssignment}}, fieldsOf(t, err))

	_, err = f.svc.Create(ctx, CreateInput{UserID: alice, RoleID: f.roleIDs[enums.BaseRoleStaff], FranchiseID: &sg}, actor)
	require.NoError(t, err)

	all, err := f.svc.FindAllByUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.Equal(t, []enums.AuditAction{
		enums.AuditActionCreate,
		enums.AuditActionCreate,
		enums.AuditActionAssignRoleToUser,
		enums.AuditActionAssignRoleToUser,
		enums.AuditActionAssignRoleToUser,
	}, f.audit.actions())
}

func TestCreateValidatesReferencesAndScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob@example.com")
	hn := f.franchise(t, "HN01")
	missing := uuid.New()

	cases := []struct {
		name  string
		in    CreateInput
		want  error
		field string
	}{
		{"unknown user", CreateInput{UserID: uuid.New(), RoleID: f.roleIDs[enums.BaseRoleAdmin]}, ErrUserNotFound, "user_id"},
		{"unknown role", CreateInput{UserID: bob, RoleID: uuid.New()}, ErrRoleNotFound, "role_id"},
		{"global role with franchise", CreateInput{UserID: bob, RoleID: f.roleIDs[enums.BaseRoleAdmin], FranchiseID: &hn}, ErrScopeMismatch, "franchise_id"},
		{"franchise role without franchise", CreateInput{UserID: bob, RoleID: f.roleIDs[enums.BaseRoleStaff]}, ErrScopeMismatch, "franchise_id"},
		{"unknown franchise", CreateInput{UserID: bob, RoleID: f.roleIDs[enums.BaseRoleStaff], FranchiseID: &missing}, ErrFranchiseNotFound, "franchise_id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.in, uuid.New())
			require.ErrorIs(t, err, tc.want)
			fields := fieldsOf(t, err)
			require.Len(t, fields, 1)
			assert.Equal(t, tc.field, fields[0].Field)
		})
	}
}

func TestCreateRestoresSoftDeletedTuple(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := uuid.New()
	carol := f.user(t, "carol@example.com")
	hn := f.franchise(t, "HN01")
	in := CreateInput{UserID: carol, RoleID: f.roleIDs[enums.BaseRoleManager], FranchiseID: &hn, Note: lo.ToPtr("first")}

	first, err := f.svc.Create(ctx, in, admin)
	require.NoError(t, err)
	require.NoError(t, f.svc.SoftDelete(ctx, first.ID, admin))

	in.Note = lo.ToPtr("second")
	again, err := f.svc.Create(ctx, in, admin)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.False(t, again.IsDeleted)
	assert.Equal(t, "second", again.Note)

	var count int64
	require.NoError(t, f.client.DB().Model(&models.UserFranchiseRole{}).Where("user_id = ?", carol).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := uuid.New()
	dave := f.user(t, "dave@example.com")
	hn := f.franchise(t, "HN01")

	assignment, err := f.svc.Create(ctx, CreateInput{UserID: dave, RoleID: f.roleIDs[enums.BaseRoleManager], FranchiseID: &hn}, admin)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, assignment.ID, UpdateInput{RoleID: f.roleIDs[enums.BaseRoleManager]}, admin)
	assert.ErrorIs(t, err, ErrNoChange)

	_, err = f.svc.Update(ctx, assignment.ID, UpdateInput{RoleID: f.roleIDs[enums.BaseRoleAdmin]}, admin)
	require.ErrorIs(t, err, ErrCrossScopeUpdate)
	assert.Equal(t, msgCannotChangeToGlobal, fieldsOf(t, err)[0].Message)

	_, err = f.svc.Update(ctx, assignment.ID, UpdateInput{RoleID: uuid.New()}, admin)
	assert.ErrorIs(t, err, ErrRoleNotFound)

	updated, err := f.svc.Update(ctx, assignment.ID, UpdateInput{RoleID: f.roleIDs[enums.BaseRoleStaff]}, admin)
	require.NoError(t, err)
	assert.Equal(t, enums.BaseRoleStaff, updated.RoleCode)
	assert.Equal(t, hn, lo.FromPtr(updated.FranchiseID))

	last := f.audit.entries[len(f.audit.entries)-1]
	assert.Equal(t, enums.AuditActionUpdate, last.Action)
	assert.Equal(t, map[string]any{"role_id": f.roleIDs[enums.BaseRoleManager].String()}, last.OldData)
	assert.Equal(t, map[string]any{"role_id": f.roleIDs[enums.BaseRoleStaff].String()}, last.NewData)

	global, err := f.svc.Create(ctx, CreateInput{UserID: dave, RoleID: f.roleIDs[enums.BaseRoleAdmin]}, admin)
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, global.ID, UpdateInput{RoleID: f.roleIDs[enums.BaseRoleStaff]}, admin)
	require.ErrorIs(t, err, ErrCrossScopeUpdate)
	assert.Equal(t, msgCannotChangeToFranchise, fieldsOf(t, err)[0].Message)

	_, err = f.svc.Update(ctx, uuid.New(), UpdateInput{RoleID: f.roleIDs[enums.BaseRoleStaff]}, admin)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSoftDeleteBlocksSelfLockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	erin := f.user(t, "erin@example.com")
	other := f.user(t, "other@example.com")

	own, err := f.svc.Create(ctx, CreateInput{UserID: erin, RoleID: f.roleIDs[enums.BaseRoleSuperAdmin]}, erin)
	require.NoError(t, err)

	err = f.svc.SoftDelete(ctx, own.ID, erin)
	require.ErrorIs(t, err, ErrSelfLockout)

	require.NoError(t, f.svc.SoftDelete(ctx, own.ID, other))
	err = f.svc.SoftDelete(ctx, own.ID, other)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRestoreRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := uuid.New()
	frank := f.user(t, "frank@example.com")
	hn := f.franchise(t, "HN01")

	old, err := f.svc.Create(ctx, CreateInput{UserID: frank, RoleID: f.roleIDs[enums.BaseRoleManager], FranchiseID: &hn}, admin)
	require.NoError(t, err)
	require.NoError(t, f.svc.SoftDelete(ctx, old.ID, admin))

	replacement, err := f.svc.Create(ctx, CreateInput{UserID: frank, RoleID: f.roleIDs[enums.BaseRoleStaff], FranchiseID: &hn}, admin)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, replacement.ID)

	err = f.svc.Restore(ctx, old.ID, admin)
	require.ErrorIs(t, err, ErrRestoreWouldDuplicate)
	assert.Equal(t, msgRestoreWouldDuplicate, fieldsOf(t, err)[0].Message)

	require.NoError(t, f.svc.SoftDelete(ctx, replacement.ID, admin))
	require.NoError(t, f.svc.Restore(ctx, old.ID, admin))

	err = f.svc.Restore(ctx, old.ID, admin)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, enums.AuditActionRestore, f.audit.actions()[len(f.audit.entries)-1])
}

func TestPartialIndexesGuardLiveRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gina := f.user(t, "gina@example.com")
	hn := f.franchise(t, "HN01")

	require.NoError(t, f.repo.Create(ctx, &models.UserFranchiseRole{UserID: gina, RoleID: f.roleIDs[enums.BaseRoleAdmin], IsActive: true}))
	err := f.repo.Create(ctx, &models.UserFranchiseRole{UserID: gina, RoleID: f.roleIDs[enums.BaseRoleSuperAdmin], IsActive: true})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	require.NoError(t, f.repo.Create(ctx, &models.UserFranchiseRole{UserID: gina, RoleID: f.roleIDs[enums.BaseRoleStaff], FranchiseID: &hn, IsActive: true}))
	err = f.repo.Create(ctx, &models.UserFranchiseRole{UserID: gina, RoleID: f.roleIDs[enums.BaseRoleManager], FranchiseID: &hn, IsActive: true})
	assert.True(t, db.IsUniqueViolation(err, ""))

	live, err := f.repo.FindLiveForPair(ctx, gina, &hn)
	require.NoError(t, err)
	rows, err := f.repo.SoftDelete(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	require.NoError(t, f.repo.Create(ctx, &models.UserFranchiseRole{UserID: gina, RoleID: f.roleIDs[enums.BaseRoleManager], FranchiseID: &hn, IsActive: true}))
}

// pairBlindRepository hides live rows from the pair lookup, so writes reach
// the unique indexes as they would when two requests race.
type pairBlindRepository struct {
	*Repository
}

func (pairBlindRepository) FindLiveForPair(context.Context, uuid.UUID, *uuid.UUID) (*models.UserFranchiseRole, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fixture) racingService() *Service {
	svc := *f.svc
	svc.repo = pairBlindRepository{Repository: f.repo}
	return &svc
}

func TestUniqueIndexesReportDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := uuid.New()
	hank := f.user(t, "hank@example.com")
	hn := f.franchise(t, "HN01")
	racing := f.racingService()

	_, err := racing.Create(ctx, CreateInput{UserID: hank, RoleID: f.roleIDs[enums.BaseRoleAdmin]}, admin)
	require.NoError(t, err)
	_, err = racing.Create(ctx, CreateInput{UserID: hank, RoleID: f.roleIDs[enums.BaseRoleSuperAdmin]}, admin)
	require.ErrorIs(t, err, ErrDuplicateGlobal)
	assert.Equal(t, []pkgerrors.FieldError{{Field: "user_id", Message: msgDuplicateGlobal}}, fieldsOf(t, err))

	_, err = racing.Create(ctx, CreateInput{UserID: hank, RoleID: f.roleIDs[enums.BaseRoleManager], FranchiseID: &hn}, admin)
	require.NoError(t, err)
	_, err = racing.Create(ctx, CreateInput{UserID: hank, RoleID: f.roleIDs[enums.BaseRoleStaff], FranchiseID: &hn}, admin)
	require.ErrorIs(t, err, ErrDuplicateAssignment)
	assert.Equal(t, []pkgerrors.FieldError{{Field: "franchise_id", Message: msgDuplicateAssignment}}, fieldsOf(t, err))
}

func TestUniqueIndexesGuardRestores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := uuid.New()
	ivy := f.user(t, "ivy@example.com")
	hn := f.franchise(t, "HN01")
	managerIn := CreateInput{UserID: ivy, RoleID: f.roleIDs[enums.BaseRoleManager], FranchiseID: &hn}

	old, err := f.svc.Create(ctx, managerIn, admin)
	require.NoError(t, err)
	require.NoError(t, f.svc.SoftDelete(ctx, old.ID, admin))
	_, err = f.svc.Create(ctx, CreateInput{UserID: ivy, RoleID: f.roleIDs[enums.BaseRoleStaff], FranchiseID: &hn}, admin)
	require.NoError(t, err)

	racing := f.racingService()

	_, err = racing.Create(ctx, managerIn, admin)
	require.ErrorIs(t, err, ErrDuplicateAssignment)
	assert.Equal(t, msgDuplicateAssignment, fieldsOf(t, err)[0].Message)

	err = racing.Restore(ctx, old.ID, admin)
	require.ErrorIs(t, err, ErrRestoreWouldDuplicate)
	assert.Equal(t, msgRestoreWouldDuplicate, fieldsOf(t, err)[0].Message)

	stale, err := f.repo.FindByID(ctx, old.ID, true)
	require.NoError(t, err)
	assert.True(t, stale.IsDeleted)
}

func TestSearchPinsFranchiseCallers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := uuid.New()
	hn := f.franchise(t, "HN01")
	sg := f.franchise(t, "SG01")
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		id := f.user(t, email)
		_, err := f.svc.Create(ctx, CreateInput{UserID: id, RoleID: f.roleIDs[enums.BaseRoleStaff], FranchiseID: &hn}, admin)
		require.NoError(t, err)
	}
	outsider := f.user(t, "d@example.com")
	sgRow, err := f.svc.Create(ctx, CreateInput{UserID: outsider, RoleID: f.roleIDs[enums.BaseRoleStaff], FranchiseID: &sg}, admin)
	require.NoError(t, err)

	global := &auth.UserContext{Role: enums.BaseRoleAdmin, Scope: enums.RoleScopeGlobal}
	page, err := f.svc.Search(ctx, SearchInput{PageInfo: pagination.PageInfo{PageNum: 1, PageSize: 2}}, global)
	require.NoError(t, err)
	assert.Len(t, page.PageData, 2)
	assert.Equal(t, int64(4), page.PageInfo.TotalItems)
	assert.Equal(t, 2, page.PageInfo.TotalPages)

	manager := &auth.UserContext{Role: enums.BaseRoleManager, Scope: enums.RoleScopeFranchise, FranchiseID: &hn}
	page, err = f.svc.Search(ctx, SearchInput{}, manager)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.PageInfo.TotalItems)
	for _, item := range page.PageData {
		assert.Equal(t, "HN01", item.FranchiseCode)
	}

	_, err = f.svc.Search(ctx, SearchInput{SearchCondition: SearchCondition{FranchiseID: &sg}}, manager)
	assert.ErrorIs(t, err, ErrForeignFranchiseAccess)

	_, err = f.svc.Get(ctx, sgRow.ID, manager)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	byUser, err := f.svc.ListByUser(ctx, outsider, manager)
	require.NoError(t, err)
	assert.Empty(t, byUser)

	byFranchise, err := f.svc.ListByFranchise(ctx, sg)
	require.NoError(t, err)
	require.Len(t, byFranchise, 1)
	assert.Equal(t, "d@example.com", byFranchise[0].UserEmail)

	_, err = f.svc.ListByFranchise(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
