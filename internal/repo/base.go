// Package repo holds the GORM plumbing shared by the domain repositories.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every repository.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Live returns a handle limited to rows that are not soft deleted.
func (b Base) Live(ctx context.Context) *gorm.DB {
	return b.DB(ctx).Scopes(Deleted(false))
}

func (b Base) WithTx(tx *gorm.DB) Base {
	return Base{db: tx}
}

// Deleted scopes a query to rows in the given soft-delete state.
func Deleted(deleted bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_deleted = ?", deleted)
	}
}

// First loads the first T matching cond. gorm.ErrRecordNotFound is returned
// untouched so callers can use IsNotFound.
func First[T any](q *gorm.DB, cond string, args ...any) (*T, error) {
	var out T
	if err := q.Where(cond, args...).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByIDs loads the T rows whose id is in ids. Unknown ids are skipped.
func FindByIDs[T any](q *gorm.DB, ids []uuid.UUID) ([]T, error) {
	out := []T{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := q.Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
