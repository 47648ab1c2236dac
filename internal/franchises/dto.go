package franchises

import (
	"time"

	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// CreateInput is the body of POST /api/franchises.
type CreateInput struct {
	Code     string  `json:"code" validate:"required,max=50"`
	Name     string  `json:"name" validate:"required,max=255"`
	Hotline  *string `json:"hotline" validate:"omitempty,max=20"`
	LogoURL  *string `json:"logo_url" validate:"omitempty,url"`
	Address  *string `json:"address" validate:"omitempty,max=500"`
	OpenedAt *string `json:"opened_at" validate:"omitempty,datetime=15:04"`
	ClosedAt *string `json:"closed_at" validate:"omitempty,datetime=15:04"`
}

// UpdateInput is the body of PUT /api/franchises/{id}.
type UpdateInput = CreateInput

// StatusInput is the body of PATCH /api/franchises/{id}/status.
type StatusInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SearchCondition filters franchise searches.
type SearchCondition struct {
	Keyword   string `json:"keyword"`
	IsActive  *bool  `json:"is_active"`
	IsDeleted bool   `json:"is_deleted"`
}

// SearchInput is the body of POST /api/franchises/search.
type SearchInput struct {
	SearchCondition SearchCondition     `json:"searchCondition"`
	PageInfo        pagination.PageInfo `json:"pageInfo"`
}

// Summary is the shape returned by the batch lookup.
type Summary struct {
	ID   uuid.UUID
	Code string
	Name string
}

// Item is the API representation of a franchise.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Hotline   string    `json:"hotline"`
	LogoURL   string    `json:"logo_url"`
	Address   string    `json:"address"`
	OpenedAt  string    `json:"opened_at"`
	ClosedAt  string    `json:"closed_at"`
	IsActive  bool      `json:"is_active"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SelectItem feeds franchise pickers.
type SelectItem struct {
	Value uuid.UUID `json:"value"`
	Code  string    `json:"code"`
	Name  string    `json:"name"`
}

var auditFields = []string{"code", "name", "opened_at", "closed_at", "hotline", "logo_url", "address", "is_active"}

func toItem(f models.Franchise) Item {
	return Item{
		ID:        f.ID,
		Code:      f.Code,
		Name:      f.Name,
		Hotline:   lo.FromPtr(f.Hotline),
		LogoURL:   lo.FromPtr(f.LogoURL),
		Address:   lo.FromPtr(f.Address),
		OpenedAt:  lo.FromPtr(f.OpenedAt),
		ClosedAt:  lo.FromPtr(f.ClosedAt),
		IsActive:  f.IsActive,
		IsDeleted: f.IsDeleted,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func snapshot(f models.Franchise) map[string]any {
	return map[string]any{
		"code":       f.Code,
		"name":       f.Name,
		"opened_at":  lo.FromPtr(f.OpenedAt),
		"closed_at":  lo.FromPtr(f.ClosedAt),
		"hotline":    lo.FromPtr(f.Hotline),
		"logo_url":   lo.FromPtr(f.LogoURL),
		"address":    lo.FromPtr(f.Address),
		"is_active":  f.IsActive,
		"is_deleted": f.IsDeleted,
	}
}

// applyInput copies the editable fields of in onto f.
func applyInput(f *models.Franchise, in CreateInput) {
	f.Code = in.Code
	f.Name = in.Name
	f.Hotline = in.Hotline
	f.LogoURL = in.LogoURL
	f.Address = in.Address
	f.OpenedAt = in.OpenedAt
	f.ClosedAt = in.ClosedAt
}
