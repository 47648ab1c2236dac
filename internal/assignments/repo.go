package assignments

import (
	"context"

	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const detailColumns = `ufr.id, ufr.user_id, ufr.role_id, ufr.franchise_id, ufr.note,
	ufr.is_deleted, ufr.created_at, ufr.updated_at,
	r.code AS role_code, r.name AS role_name,
	f.code AS franchise_code, f.name AS franchise_name,
	u.name AS user_name, u.email AS user_email`

// Repository exposes assignment persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs an assignments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindByID loads an assignment in the requested deleted state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID, deleted bool) (*models.UserFranchiseRole, error) {
	return repo.First[models.UserFranchiseRole](r.DB(ctx).Scopes(repo.Deleted(deleted)), "id = ?", id)
}

// FindLiveForPair loads the live assignment of userID in franchiseID, or
// the live GLOBAL assignment when franchiseID is nil.
func (r *Repository) FindLiveForPair(ctx context.Context, userID uuid.UUID, franchiseID *uuid.UUID) (*models.UserFranchiseRole, error) {
	var row models.UserFranchiseRole
	q := wherePair(r.Live(ctx), userID, franchiseID)
	if err := q.First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindDeletedTuple loads the most recently touched soft-deleted assignment
// for the exact (user, role, franchise) tuple.
func (r *Repository) FindDeletedTuple(ctx context.Context, userID, roleID uuid.UUID, franchiseID *uuid.UUID) (*models.UserFranchiseRole, error) {
	var row models.UserFranchiseRole
	q := wherePair(r.DB(ctx), userID, franchiseID).
		Where("role_id = ? AND is_deleted = ?", roleID, true).
		Order("updated_at DESC")
	if err := q.First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts an assignment.
func (r *Repository) Create(ctx context.Context, row *models.UserFranchiseRole) error {
	return r.DB(ctx).Create(row).Error
}

// UpdateLive applies updates to a live assignment and reports the affected rows.
func (r *Repository) UpdateLive(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.DB(ctx).Model(&models.UserFranchiseRole{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// Undelete clears is_deleted on a soft-deleted assignment, applying any
// extra updates in the same statement.
func (r *Repository) Undelete(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	values := map[string]any{"is_deleted": false}
	for k, v := range updates {
		values[k] = v
	}
	res := r.DB(ctx).Model(&models.UserFranchiseRole{}).
		Where("id = ? AND is_deleted = ?", id, true).
		Updates(values)
	return res.RowsAffected, res.Error
}

// SoftDelete marks a live assignment deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Model(&models.UserFranchiseRole{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	return res.RowsAffected, res.Error
}

// ListLiveByUser returns the live assignments of userID, oldest first.
func (r *Repository) ListLiveByUser(ctx context.Context, userID uuid.UUID) ([]models.UserFranchiseRole, error) {
	var rows []models.UserFranchiseRole
	err := r.DB(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// FindDetail loads one assignment, deleted or not, with its references.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*detailRow, error) {
	var rows []detailRow
	err := r.joined(ctx).Select(detailColumns).
		Where("ufr.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// ListDetails returns every assignment matching cond with its references.
func (r *Repository) ListDetails(ctx context.Context, cond SearchCondition) ([]detailRow, error) {
	var rows []detailRow
	err := filter(r.joined(ctx), cond).Select(detailColumns).
		Order("ufr.created_at ASC").Order("ufr.id ASC").
		Scan(&rows).Error
	return rows, err
}

// Search returns one page of assignments matching cond plus the total count.
func (r *Repository) Search(ctx context.Context, cond SearchCondition, page pagination.PageInfo) ([]detailRow, int64, error) {
	var total int64
	if err := filter(r.joined(ctx), cond).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []detailRow
	err := filter(r.joined(ctx), cond).Select(detailColumns).
		Order("ufr.created_at DESC").Order("ufr.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.DB(ctx).Table("user_franchise_roles AS ufr").
		Joins("JOIN roles r ON r.id = ufr.role_id").
		Joins("JOIN users u ON u.id = ufr.user_id").
		Joins("LEFT JOIN franchises f ON f.id = ufr.franchise_id")
}

func filter(q *gorm.DB, cond SearchCondition) *gorm.DB {
	deleted := false
	if cond.IsDeleted != nil {
		deleted = *cond.IsDeleted
	}
	q = q.Where("ufr.is_deleted = ?", deleted)
	if cond.UserID != nil {
		q = q.Where("ufr.user_id = ?", *cond.UserID)
	}
	if cond.FranchiseID != nil {
		q = q.Where("ufr.franchise_id = ?", *cond.FranchiseID)
	}
	if cond.RoleID != nil {
		q = q.Where("ufr.role_id = ?", *cond.RoleID)
	}
	return q
}

func wherePair(q *gorm.DB, userID uuid.UUID, franchiseID *uuid.UUID) *gorm.DB {
	q = q.Where("user_id = ?", userID)
	if franchiseID == nil {
		return q.Where("franchise_id IS NULL")
	}
	return q.Where("franchise_id = ?", *franchiseID)
}
