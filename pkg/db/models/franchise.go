package models

import (
	"time"

	"github.com/google/uuid"
)

// Franchise is a tenant branch. OpenedAt/ClosedAt hold the daily hours as HH:MM.
type Franchise struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Code      string    `gorm:"column:code;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	Hotline   *string   `gorm:"column:hotline"`
	LogoURL   *string   `gorm:"column:logo_url"`
	Address   *string   `gorm:"column:address"`
	OpenedAt  *string   `gorm:"column:opened_at"`
	ClosedAt  *string   `gorm:"column:closed_at"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
