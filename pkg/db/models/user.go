package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. TokenVersion is bumped to
// invalidate every credential issued before the bump.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Name         string     `gorm:"column:name;not null"`
	Phone        *string    `gorm:"column:phone"`
	AvatarURL    *string    `gorm:"column:avatar_url"`
	IsVerified   bool       `gorm:"column:is_verified;not null;default:false"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	IsDeleted    bool       `gorm:"column:is_deleted;not null;default:false"`
	TokenVersion int        `gorm:"column:token_version;not null;default:0"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
