package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/pkg/auth/session"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return repo.First[models.User](r.DB(ctx), "email = ?", NormalizeEmail(email))
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return repo.First[models.User](r.DB(ctx), "id = ?", id)
}

// ExistsLive reports whether a non-deleted user with id exists.
func (r *Repository) ExistsLive(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.Live(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// FindLive loads a non-deleted user.
func (r *Repository) FindLive(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return repo.First[models.User](r.Live(ctx), "id = ?", id)
}

// EmailTaken reports whether any user, deleted or not, owns email.
func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.User{}).Where("email = ?", NormalizeEmail(email)).Count(&count).Error
	return count > 0, err
}

// InFranchise reports whether userID holds a live assignment in franchiseID.
func (r *Repository) InFranchise(ctx context.Context, userID, franchiseID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.UserFranchiseRole{}).
		Where("user_id = ? AND franchise_id = ? AND is_deleted = ?", userID, franchiseID, false).
		Count(&count).Error
	return count > 0, err
}

// SetActive flips is_active on a non-deleted user.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	res := r.Live(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	return res.RowsAffected, res.Error
}

// Search returns one page of users matching cond plus the total count.
// A non-nil cond.FranchiseID keeps users holding a live assignment there.
func (r *Repository) Search(ctx context.Context, cond SearchCondition, page pagination.PageInfo) ([]models.User, int64, error) {
	q := r.DB(ctx).Model(&models.User{}).Scopes(repo.Deleted(cond.IsDeleted))
	if kw := strings.TrimSpace(cond.Keyword); kw != "" {
		q = q.Where("(LOWER(email) LIKE ? OR LOWER(name) LIKE ?)",
			strings.ToLower(kw)+"%", "%"+strings.ToLower(kw)+"%")
	}
	if cond.IsActive != nil {
		q = q.Where("is_active = ?", *cond.IsActive)
	}
	if cond.FranchiseID != nil {
		members := r.DB(ctx).Model(&models.UserFranchiseRole{}).
			Select("user_id").
			Where("franchise_id = ? AND is_deleted = ?", *cond.FranchiseID, false)
		q = q.Where("id IN (?)", members)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.User
	err := q.Order("created_at DESC").Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdatePasswordHash replaces the stored hash of a non-deleted user.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.Live(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

// ActiveTokenVersion returns the token version of a verified, non-deleted
// user, or session.ErrUserInactive.
func (r *Repository) ActiveTokenVersion(ctx context.Context, id uuid.UUID) (int, error) {
	var user models.User
	err := r.DB(ctx).
		Select("id", "token_version").
		Where("id = ? AND is_deleted = ? AND is_verified = ?", id, false, true).
		First(&user).Error
	if err != nil {
		if repo.IsNotFound(err) {
			return 0, session.ErrUserInactive
		}
		return 0, fmt.Errorf("load token version: %w", err)
	}
	return user.TokenVersion, nil
}

// IncrementTokenVersion bumps token_version in one statement and returns the
// new value.
func (r *Repository) IncrementTokenVersion(ctx context.Context, id uuid.UUID) (int, error) {
	res := r.Live(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("increment token version: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, session.ErrUserInactive
	}

	var user models.User
	if err := r.DB(ctx).Select("token_version").First(&user, "id = ?", id).Error; err != nil {
		return 0, fmt.Errorf("reload token version: %w", err)
	}
	return user.TokenVersion, nil
}
