package franchises

import (
	"context"
	"strings"

	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes franchise persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a franchises repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a franchise in the requested deleted state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID, deleted bool) (*models.Franchise, error) {
	return repo.First[models.Franchise](r.DB(ctx).Scopes(repo.Deleted(deleted)), "id = ?", id)
}

// FindByIDs loads the non-deleted franchises among ids.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Franchise, error) {
	return repo.FindByIDs[models.Franchise](r.Live(ctx), ids)
}

// CodeTaken reports whether another franchise already uses code.
func (r *Repository) CodeTaken(ctx context.Context, code string, exceptID *uuid.UUID) (bool, error) {
	q := r.DB(ctx).Model(&models.Franchise{}).Where("code = ?", code)
	if exceptID != nil {
		q = q.Where("id <> ?", *exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a franchise.
func (r *Repository) Create(ctx context.Context, franchise *models.Franchise) error {
	return r.DB(ctx).Create(franchise).Error
}

// UpdateLive applies updates to a non-deleted franchise and reports the
// affected rows.
func (r *Repository) UpdateLive(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.Live(ctx).Model(&models.Franchise{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

// SetDeleted flips is_deleted when the row is in the opposite state.
func (r *Repository) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) (int64, error) {
	res := r.DB(ctx).Model(&models.Franchise{}).
		Scopes(repo.Deleted(!deleted)).
		Where("id = ?", id).
		Update("is_deleted", deleted)
	return res.RowsAffected, res.Error
}

// ListSelectable returns active, non-deleted franchises ordered by name.
func (r *Repository) ListSelectable(ctx context.Context) ([]models.Franchise, error) {
	var rows []models.Franchise
	err := r.Live(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// Search returns one page of franchises matching cond plus the total count.
func (r *Repository) Search(ctx context.Context, cond SearchCondition, page pagination.PageInfo) ([]models.Franchise, int64, error) {
	q := r.DB(ctx).Model(&models.Franchise{}).Scopes(repo.Deleted(cond.IsDeleted))
	if kw := strings.TrimSpace(cond.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		q = q.Where("(LOWER(code) LIKE ? OR LOWER(name) LIKE ?)", like, like)
	}
	if cond.IsActive != nil {
		q = q.Where("is_active = ?", *cond.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Franchise
	err := q.Order("created_at DESC").Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
