package assignments

import (
	"time"

	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// CreateInput is the body of POST /api/assignments. A nil FranchiseID
// requests a GLOBAL assignment.
type CreateInput struct {
	UserID      uuid.UUID  `json:"user_id" validate:"required"`
	RoleID      uuid.UUID  `json:"role_id" validate:"required"`
	FranchiseID *uuid.UUID `json:"franchise_id"`
	Note        *string    `json:"note" validate:"omitempty,max=500"`
}

// UpdateInput is the body of PUT /api/assignments/{id}.
type UpdateInput struct {
	RoleID uuid.UUID `json:"role_id" validate:"required"`
	Note   *string   `json:"note" validate:"omitempty,max=500"`
}

// SearchCondition filters assignment searches. IsDeleted defaults to live rows.
type SearchCondition struct {
	UserID      *uuid.UUID `json:"user_id"`
	FranchiseID *uuid.UUID `json:"franchise_id"`
	RoleID      *uuid.UUID `json:"role_id"`
	IsDeleted   *bool      `json:"is_deleted"`
}

// SearchInput is the body of POST /api/assignments/search.
type SearchInput struct {
	SearchCondition SearchCondition     `json:"searchCondition"`
	PageInfo        pagination.PageInfo `json:"pageInfo"`
}

// Assignment is the stored shape handed to other services.
type Assignment struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	RoleID      uuid.UUID
	FranchiseID *uuid.UUID
	Note        string
	IsActive    bool
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsGlobal reports whether the assignment is system-wide.
func (a Assignment) IsGlobal() bool {
	return a.FranchiseID == nil
}

// Item is the API representation of an assignment, enriched with the
// referenced role, franchise and user.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Note      string    `json:"note"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FranchiseID   *uuid.UUID `json:"franchise_id"`
	FranchiseCode string     `json:"franchise_code"`
	FranchiseName string     `json:"franchise_name"`

	RoleID   uuid.UUID      `json:"role_id"`
	RoleCode enums.BaseRole `json:"role_code"`
	RoleName string         `json:"role_name"`

	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
}

// detailRow is the joined projection used by the read surface.
type detailRow struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	RoleID        uuid.UUID
	FranchiseID   *uuid.UUID
	Note          string
	IsDeleted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	RoleCode      enums.BaseRole
	RoleName      string
	FranchiseCode *string
	FranchiseName *string
	UserName      string
	UserEmail     string
}

var auditFields = []string{"franchise_id", "role_id", "user_id", "note"}

func toAssignment(m models.UserFranchiseRole) Assignment {
	return Assignment{
		ID:          m.ID,
		UserID:      m.UserID,
		RoleID:      m.RoleID,
		FranchiseID: m.FranchiseID,
		Note:        m.Note,
		IsActive:    m.IsActive,
		IsDeleted:   m.IsDeleted,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toItem(r detailRow) Item {
	return Item{
		ID:            r.ID,
		Note:          r.Note,
		IsDeleted:     r.IsDeleted,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		FranchiseID:   r.FranchiseID,
		FranchiseCode: lo.FromPtr(r.FranchiseCode),
		FranchiseName: lo.FromPtr(r.FranchiseName),
		RoleID:        r.RoleID,
		RoleCode:      r.RoleCode,
		RoleName:      r.RoleName,
		UserID:        r.UserID,
		UserName:      r.UserName,
		UserEmail:     r.UserEmail,
	}
}

func snapshot(m models.UserFranchiseRole) map[string]any {
	var franchiseID any
	if m.FranchiseID != nil {
		franchiseID = m.FranchiseID.String()
	}
	return map[string]any{
		"franchise_id": franchiseID,
		"role_id":      m.RoleID.String(),
		"user_id":      m.UserID.String(),
		"note":         m.Note,
		"is_deleted":   m.IsDeleted,
	}
}
