package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/franchisehub/backoffice/pkg/enums"
)

// Role is a seeded permission set. Scope never changes after seeding.
type Role struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Code        enums.BaseRole  `gorm:"column:code;not null;uniqueIndex"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description"`
	Scope       enums.RoleScope `gorm:"column:scope;not null"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	IsDeleted   bool            `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
