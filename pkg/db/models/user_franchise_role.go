package models

import (
	"time"

	"github.com/google/uuid"
)

// UserFranchiseRole grants one role to one user. A nil FranchiseID is a
// GLOBAL assignment. Uniqueness over live rows is enforced by partial
// indexes, see the user_franchise_roles migration.
type UserFranchiseRole struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	RoleID      uuid.UUID  `gorm:"column:role_id;type:uuid;not null"`
	FranchiseID *uuid.UUID `gorm:"column:franchise_id;type:uuid"`
	Note        string     `gorm:"column:note;not null;default:''"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	IsDeleted   bool       `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsGlobal reports whether the assignment is system-wide.
func (a UserFranchiseRole) IsGlobal() bool {
	return a.FranchiseID == nil
}
