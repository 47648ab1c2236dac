package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/franchisehub/backoffice/pkg/enums"
)

// AuditLog records one change to a tracked entity.
type AuditLog struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	EntityType enums.AuditEntityType `gorm:"column:entity_type;not null"`
	EntityID   uuid.UUID             `gorm:"column:entity_id;type:uuid;not null"`
	Action     enums.AuditAction     `gorm:"column:action;not null"`
	OldData    map[string]any        `gorm:"column:old_data;serializer:json"`
	NewData    map[string]any        `gorm:"column:new_data;serializer:json"`
	ChangedBy  *uuid.UUID            `gorm:"column:changed_by;type:uuid"`
	Note       string                `gorm:"column:note;not null;default:''"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}
