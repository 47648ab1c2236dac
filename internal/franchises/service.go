package franchises

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franchisehub/backoffice/internal/audit"
	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	ErrNotFound       = errors.New("franchise not found")
	ErrCodeTaken      = errors.New("franchise code already exists")
	ErrStatusNoChange = errors.New("franchise status unchanged")
)

type franchisesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID, deleted bool) (*models.Franchise, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Franchise, error)
	CodeTaken(ctx context.Context, code string, exceptID *uuid.UUID) (bool, error)
	Create(ctx context.Context, franchise *models.Franchise) error
	UpdateLive(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) (int64, error)
	ListSelectable(ctx context.Context) ([]models.Franchise, error)
	Search(ctx context.Context, cond SearchCondition, page pagination.PageInfo) ([]models.Franchise, int64, error)
}

// Service is the Franchise Directory.
type Service struct {
	repo  franchisesRepository
	audit audit.Recorder
}

// NewService constructs the franchise directory.
func NewService(r franchisesRepository, recorder audit.Recorder) (*Service, error) {
	if r == nil {
		return nil, fmt.Errorf("franchises repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &Service{repo: r, audit: recorder}, nil
}

// GetByIDs batch-loads non-deleted franchises. Only found rows are returned.
func (s *Service) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Summary, error) {
	rows, err := s.repo.FindByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("load franchises: %w", err)
	}
	return lo.Map(rows, func(f models.Franchise, _ int) Summary {
		return Summary{ID: f.ID, Code: f.Code, Name: f.Name}
	}), nil
}

// Exists reports whether a non-deleted franchise with id exists.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.FindByID(ctx, id, false)
	if err == nil {
		return true, nil
	}
	if repo.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("load franchise %s: %w", id, err)
}

// Create adds a franchise. Codes are unique across live and deleted rows.
func (s *Service) Create(ctx context.Context, in CreateInput, actor uuid.UUID) (*Item, error) {
	in = normalizeInput(in)
	if err := s.ensureCodeFree(ctx, in.Code, nil); err != nil {
		return nil, err
	}

	franchise := &models.Franchise{IsActive: true}
	applyInput(franchise, in)
	if err := s.repo.Create(ctx, franchise); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, codeTakenError()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create franchise")
	}

	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityFranchise,
		EntityID:   franchise.ID,
		Action:     enums.AuditActionCreate,
		NewData:    audit.Pick(snapshot(*franchise), auditFields),
		ChangedBy:  actor,
	})

	item := toItem(*franchise)
	return &item, nil
}

// Get returns a non-deleted franchise.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	franchise, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	item := toItem(*franchise)
	return &item, nil
}

// Update replaces the editable fields of a franchise.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, actor uuid.UUID) (*Item, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	in = normalizeInput(in)
	if in.Code != current.Code {
		if err := s.ensureCodeFree(ctx, in.Code, &id); err != nil {
			return nil, err
		}
	}

	next := *current
	applyInput(&next, in)
	oldData, newData := audit.Diff(snapshot(*current), snapshot(next), auditFields)
	if newData == nil {
		item := toItem(*current)
		return &item, nil
	}

	updates := map[string]any{
		"code":      next.Code,
		"name":      next.Name,
		"hotline":   next.Hotline,
		"logo_url":  next.LogoURL,
		"address":   next.Address,
		"opened_at": next.OpenedAt,
		"closed_at": next.ClosedAt,
	}
	rows, err := s.repo.UpdateLive(ctx, id, updates)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, codeTakenError()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update franchise")
	}
	if rows == 0 {
		return nil, notFoundError()
	}

	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityFranchise,
		EntityID:   id,
		Action:     enums.AuditActionUpdate,
		OldData:    oldData,
		NewData:    newData,
		ChangedBy:  actor,
	})

	return s.Get(ctx, id)
}

// ChangeStatus activates or deactivates a franchise.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, active bool, actor uuid.UUID) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if current.IsActive == active {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrStatusNoChange, "Status has no change").
			WithDetails([]pkgerrors.FieldError{{Field: "is_active", Message: "Status has no change"}})
	}

	rows, err := s.repo.UpdateLive(ctx, id, map[string]any{"is_active": active})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "change franchise status")
	}
	if rows == 0 {
		return notFoundError()
	}

	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityFranchise,
		EntityID:   id,
		Action:     enums.AuditActionChangeStatus,
		OldData:    map[string]any{"is_active": current.IsActive},
		NewData:    map[string]any{"is_active": active},
		ChangedBy:  actor,
	})
	return nil
}

// SoftDelete marks a franchise deleted.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	rows, err := s.repo.SetDeleted(ctx, id, true)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete franchise")
	}
	if rows == 0 {
		return notFoundError()
	}
	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityFranchise,
		EntityID:   id,
		Action:     enums.AuditActionSoftDelete,
		OldData:    map[string]any{"is_deleted": false},
		NewData:    map[string]any{"is_deleted": true},
		ChangedBy:  actor,
	})
	return nil
}

// Restore brings a soft-deleted franchise back.
func (s *Service) Restore(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	rows, err := s.repo.SetDeleted(ctx, id, false)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore franchise")
	}
	if rows == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "Franchise not found or already restored")
	}
	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityFranchise,
		EntityID:   id,
		Action:     enums.AuditActionRestore,
		OldData:    map[string]any{"is_deleted": true},
		NewData:    map[string]any{"is_deleted": false},
		ChangedBy:  actor,
	})
	return nil
}

// ListSelect returns the options for franchise pickers.
func (s *Service) ListSelect(ctx context.Context) ([]SelectItem, error) {
	rows, err := s.repo.ListSelectable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list franchises")
	}
	return lo.Map(rows, func(f models.Franchise, _ int) SelectItem {
		return SelectItem{Value: f.ID, Code: f.Code, Name: f.Name}
	}), nil
}

// Search returns one page of franchises.
func (s *Service) Search(ctx context.Context, in SearchInput) (pagination.Page[Item], error) {
	rows, total, err := s.repo.Search(ctx, in.SearchCondition, in.PageInfo)
	if err != nil {
		return pagination.Page[Item]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search franchises")
	}
	items := lo.Map(rows, func(f models.Franchise, _ int) Item { return toItem(f) })
	return pagination.NewPage(items, in.PageInfo, total), nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Franchise, error) {
	franchise, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundError()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load franchise")
	}
	return franchise, nil
}

func (s *Service) ensureCodeFree(ctx context.Context, code string, exceptID *uuid.UUID) error {
	taken, err := s.repo.CodeTaken(ctx, code, exceptID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check franchise code")
	}
	if taken {
		return codeTakenError()
	}
	return nil
}

func normalizeInput(in CreateInput) CreateInput {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	return in
}

func notFoundError() error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "Franchise not found")
}

func codeTakenError() error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrCodeTaken, "Franchise code already exists").
		WithDetails([]pkgerrors.FieldError{{Field: "code", Message: "Franchise code already exists"}})
}
