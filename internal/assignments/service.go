package assignments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franchisehub/backoffice/internal/audit"
	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/internal/roles"
	"github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type assignmentsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID, deleted bool) (*models.UserFranchiseRole, error)
	FindLiveForPair(ctx context.Context, userID uuid.UUID, franchiseID *uuid.UUID) (*models.UserFranchiseRole, error)
	FindDeletedTuple(ctx context.Context, userID, roleID uuid.UUID, franchiseID *uuid.UUID) (*models.UserFranchiseRole, error)
	Create(ctx context.Context, row *models.UserFranchiseRole) error
	UpdateLive(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	Undelete(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (int64, error)
	ListLiveByUser(ctx context.Context, userID uuid.UUID) ([]models.UserFranchiseRole, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*detailRow, error)
	ListDetails(ctx context.Context, cond SearchCondition) ([]detailRow, error)
	Search(ctx context.Context, cond SearchCondition, page pagination.PageInfo) ([]detailRow, int64, error)
}

type userDirectory interface {
	ExistsLive(ctx context.Context, id uuid.UUID) (bool, error)
}

type roleDirectory interface {
	GetRoleByID(ctx context.Context, id uuid.UUID) (*roles.Summary, error)
}

type franchiseDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ServiceParams wires the assignment store.
type ServiceParams struct {
	Repo       assignmentsRepository
	Users      userDirectory
	Roles      roleDirectory
	Franchises franchiseDirectory
	Audit      audit.Recorder
	Logger     *logger.Logger
}

// Service is the Assignment Store.
type Service struct {
	repo       assignmentsRepository
	users      userDirectory
	roles      roleDirectory
	franchises franchiseDirectory
	audit      audit.Recorder
	logg       *logger.Logger
}

// NewService validates params and constructs the assignment store.
func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("assignments repository required")
	case p.Users == nil:
		return nil, fmt.Errorf("user directory required")
	case p.Roles == nil:
		return nil, fmt.Errorf("role directory required")
	case p.Franchises == nil:
		return nil, fmt.Errorf("franchise directory required")
	case p.Audit == nil:
		return nil, fmt.Errorf("audit recorder required")
	}
	return &Service{
		repo:       p.Repo,
		users:      p.Users,
		roles:      p.Roles,
		franchises: p.Franchises,
		audit:      p.Audit,
		logg:       p.Logger,
	}, nil
}

// Create assigns a role to a user. A soft-deleted assignment for the same
// (user, role, franchise) tuple is restored instead of inserting a new row.
func (s *Service) Create(ctx context.Context, in CreateInput, actor uuid.UUID) (*Item, error) {
	if err := s.ensureUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	role, err := s.loadRole(ctx, in.RoleID)
	if err != nil {
		return nil, err
	}
	if err := checkScope(role.Scope, in.FranchiseID); err != nil {
		return nil, err
	}
	if in.FranchiseID != nil {
		if err := s.ensureFranchise(ctx, *in.FranchiseID); err != nil {
			return nil, err
		}
	}

	franchiseScoped := in.FranchiseID != nil
	if _, err := s.repo.FindLiveForPair(ctx, in.UserID, in.FranchiseID); err == nil {
		return nil, duplicateError(franchiseScoped)
	} else if !repo.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing assignment")
	}

	note := strings.TrimSpace(lo.FromPtr(in.Note))

	restored, err := s.restoreTuple(ctx, in, note, actor)
	if err != nil {
		return nil, err
	}
	if restored != uuid.Nil {
		return s.detail(ctx, restored)
	}

	row := &models.UserFranchiseRole{
		UserID:      in.UserID,
		RoleID:      in.RoleID,
		FranchiseID: in.FranchiseID,
		Note:        note,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, duplicateError(franchiseScoped)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create assignment")
	}

	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityUserFranchiseRole,
		EntityID:   row.ID,
		Action:     enums.AuditActionAssignRoleToUser,
		NewData:    audit.Pick(snapshot(*row), auditFields),
		ChangedBy:  actor,
		Note:       note,
	})

	return s.detail(ctx, row.ID)
}

// restoreTuple revives a soft-deleted assignment matching the request.
// It returns uuid.Nil when there was nothing to revive.
func (s *Service) restoreTuple(ctx context.Context, in CreateInput, note string, actor uuid.UUID) (uuid.UUID, error) {
	previous, err := s.repo.FindDeletedTuple(ctx, in.UserID, in.RoleID, in.FranchiseID)
	if err != nil {
		if repo.IsNotFound(err) {
			return uuid.Nil, nil
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check deleted assignment")
	}

	updates := map[string]any{}
	if in.Note != nil {
		updates["note"] = note
	}
	rows, err := s.repo.Undelete(ctx, previous.ID, updates)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return uuid.Nil, duplicateError(in.FranchiseID != nil)
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore assignment")
	}
	if rows == 0 {
		// Restored concurrently; fall back to a fresh insert.
		return uuid.Nil, nil
	}

	next := *previous
	next.IsDeleted = false
	if in.Note != nil {
		next.Note = note
	}
	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityUserFranchiseRole,
		EntityID:   previous.ID,
		Action:     enums.AuditActionAssignRoleToUser,
		OldData:    map[string]any{"is_deleted": true},
		NewData:    audit.Pick(snapshot(next), append([]string{"is_deleted"}, auditFields...)),
		ChangedBy:  actor,
		Note:       "restored previous assignment",
	})
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "assignment_id", previous.ID.String()), "assignment.restored_in_place")
	}
	return previous.ID, nil
}

// Update changes the role of a live assignment. The franchise never changes
// and the new role must keep the assignment's scope.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, actor uuid.UUID) (*Item, error) {
	current, err := s.loadLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.RoleID == uuid.Nil || in.RoleID == current.RoleID {
		return nil, fieldError(ErrNoChange, "role_id", msgNoChange)
	}

	role, err := s.loadRole(ctx, in.RoleID)
	if err != nil {
		return nil, err
	}
	if err := checkScopeChange(role.Scope, current.IsGlobal()); err != nil {
		return nil, err
	}

	next := *current
	next.RoleID = in.RoleID
	updates := map[string]any{"role_id": in.RoleID}
	if in.Note != nil {
		next.Note = strings.TrimSpace(*in.Note)
		updates["note"] = next.Note
	}

	rows, err := s.repo.UpdateLive(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update assignment")
	}
	if rows == 0 {
		return nil, notFoundError(msgNotFound)
	}

	oldData, newData := audit.Diff(snapshot(*current), snapshot(next), auditFields)
	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityUserFranchiseRole,
		EntityID:   id,
		Action:     enums.AuditActionUpdate,
		OldData:    oldData,
		NewData:    newData,
		ChangedBy:  actor,
	})

	return s.detail(ctx, id)
}

// SoftDelete removes a live assignment. Requesters cannot remove their own
// GLOBAL assignment.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID, requester uuid.UUID) error {
	current, err := s.loadLive(ctx, id)
	if err != nil {
		return err
	}
	if current.UserID == requester && current.IsGlobal() {
		return fieldError(ErrSelfLockout, "id", msgSelfLockout)
	}

	rows, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete assignment")
	}
	if rows == 0 {
		return notFoundError(msgNotFound)
	}

	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityUserFranchiseRole,
		EntityID:   id,
		Action:     enums.AuditActionSoftDelete,
		OldData:    map[string]any{"is_deleted": false},
		NewData:    map[string]any{"is_deleted": true},
		ChangedBy:  requester,
	})
	return nil
}

// Restore revives a soft-deleted assignment unless the user already holds a
// live one for the same franchise (or a live GLOBAL one).
func (s *Service) Restore(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	current, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		if repo.IsNotFound(err) {
			return notFoundError(msgNotFoundOrRestored)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load assignment")
	}

	if _, err := s.repo.FindLiveForPair(ctx, current.UserID, current.FranchiseID); err == nil {
		return restoreDuplicateError(current.IsGlobal())
	} else if !repo.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing assignment")
	}

	rows, err := s.repo.Undelete(ctx, id, nil)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return restoreDuplicateError(current.IsGlobal())
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore assignment")
	}
	if rows == 0 {
		return notFoundError(msgNotFoundOrRestored)
	}

	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityUserFranchiseRole,
		EntityID:   id,
		Action:     enums.AuditActionRestore,
		OldData:    map[string]any{"is_deleted": true},
		NewData:    map[string]any{"is_deleted": false},
		ChangedBy:  actor,
	})
	return nil
}

// FindAllByUser returns the live assignments of userID.
func (s *Service) FindAllByUser(ctx context.Context, userID uuid.UUID) ([]Assignment, error) {
	rows, err := s.repo.ListLiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments for user %s: %w", userID, err)
	}
	return lo.Map(rows, func(m models.UserFranchiseRole, _ int) Assignment { return toAssignment(m) }), nil
}

// Get returns one assignment. FRANCHISE-scoped callers only see rows of
// their own franchise.
func (s *Service) Get(ctx context.Context, id uuid.UUID, caller *auth.UserContext) (*Item, error) {
	item, err := s.detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(caller, item.FranchiseID) {
		return nil, forbiddenError()
	}
	return item, nil
}

// ListByUser returns the live assignments of userID with their references.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, caller *auth.UserContext) ([]Item, error) {
	cond := SearchCondition{UserID: &userID}
	if caller != nil && !caller.IsGlobal() {
		cond.FranchiseID = caller.FranchiseID
	}
	return s.list(ctx, cond)
}

// ListByFranchise returns the live assignments of a franchise.
func (s *Service) ListByFranchise(ctx context.Context, franchiseID uuid.UUID) ([]Item, error) {
	exists, err := s.franchises.Exists(ctx, franchiseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load franchise")
	}
	if !exists {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrFranchiseNotFound, msgFranchiseNotFound)
	}
	return s.list(ctx, SearchCondition{FranchiseID: &franchiseID})
}

// Search returns one page of assignments. FRANCHISE-scoped callers are
// pinned to their own franchise.
func (s *Service) Search(ctx context.Context, in SearchInput, caller *auth.UserContext) (pagination.Page[Item], error) {
	cond := in.SearchCondition
	if caller != nil && !caller.IsGlobal() {
		if cond.FranchiseID != nil && !visibleTo(caller, cond.FranchiseID) {
			return pagination.Page[Item]{}, forbiddenError()
		}
		cond.FranchiseID = caller.FranchiseID
	}

	rows, total, err := s.repo.Search(ctx, cond, in.PageInfo)
	if err != nil {
		return pagination.Page[Item]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search assignments")
	}
	items := lo.Map(rows, func(r detailRow, _ int) Item { return toItem(r) })
	return pagination.NewPage(items, in.PageInfo, total), nil
}

func (s *Service) list(ctx context.Context, cond SearchCondition) ([]Item, error) {
	rows, err := s.repo.ListDetails(ctx, cond)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list assignments")
	}
	return lo.Map(rows, func(r detailRow, _ int) Item { return toItem(r) }), nil
}

func (s *Service) detail(ctx context.Context, id uuid.UUID) (*Item, error) {
	row, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundError(msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load assignment")
	}
	item := toItem(*row)
	return &item, nil
}

func (s *Service) loadLive(ctx context.Context, id uuid.UUID) (*models.UserFranchiseRole, error) {
	row, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundError(msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load assignment")
	}
	return row, nil
}

func (s *Service) ensureUser(ctx context.Context, id uuid.UUID) error {
	exists, err := s.users.ExistsLive(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !exists {
		return fieldError(ErrUserNotFound, "user_id", msgUserNotFound)
	}
	return nil
}

func (s *Service) loadRole(ctx context.Context, id uuid.UUID) (*roles.Summary, error) {
	role, err := s.roles.GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			return nil, fieldError(ErrRoleNotFound, "role_id", msgRoleNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load role")
	}
	return role, nil
}

func (s *Service) ensureFranchise(ctx context.Context, id uuid.UUID) error {
	exists, err := s.franchises.Exists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load franchise")
	}
	if !exists {
		return fieldError(ErrFranchiseNotFound, "franchise_id", msgFranchiseNotFound)
	}
	return nil
}

func visibleTo(caller *auth.UserContext, franchiseID *uuid.UUID) bool {
	if caller == nil || caller.IsGlobal() {
		return true
	}
	return franchiseID != nil && caller.SameFranchise(franchiseID)
}

func restoreDuplicateError(global bool) error {
	if global {
		return fieldError(ErrRestoreWouldDuplicate, "user_id", msgDuplicateGlobal)
	}
	return fieldError(ErrRestoreWouldDuplicate, "franchise_id", msgRestoreWouldDuplicate)
}

func forbiddenError() error {
	return pkgerrors.Wrap(pkgerrors.CodeForbidden, ErrForeignFranchiseAccess, "You do not have access to this franchise")
}
