package roles

import (
	"context"

	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes role persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a roles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindByID loads a non-deleted role.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	return repo.First[models.Role](r.Live(ctx), "id = ?", id)
}

// FindByIDs loads the non-deleted roles among ids. Missing ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Role, error) {
	return repo.FindByIDs[models.Role](r.Live(ctx), ids)
}

// FindByCode loads a role by code, deleted or not.
func (r *Repository) FindByCode(ctx context.Context, code enums.BaseRole) (*models.Role, error) {
	return repo.First[models.Role](r.DB(ctx), "code = ?", code)
}

// ListActive returns active, non-deleted roles except the excluded codes.
func (r *Repository) ListActive(ctx context.Context, exclude ...enums.BaseRole) ([]models.Role, error) {
	q := r.Live(ctx).Where("is_active = ?", true)
	if len(exclude) > 0 {
		q = q.Where("code NOT IN ?", exclude)
	}
	var roles []models.Role
	if err := q.Order("created_at ASC").Order("code ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// Create inserts a role.
func (r *Repository) Create(ctx context.Context, role *models.Role) error {
	return r.DB(ctx).Create(role).Error
}
