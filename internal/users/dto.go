package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/pagination"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone"`
	AvatarURL *string   `json:"avatar_url"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	AvatarURL    *string
	IsVerified   bool
}

// CreateInput is the body of POST /api/users.
type CreateInput struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	Name      string  `json:"name" validate:"omitempty,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// StatusInput is the body of PUT /api/users/{id}/change-status.
type StatusInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SearchCondition filters user searches. FranchiseID is set by the service
// for FRANCHISE-scoped callers and cannot be sent by clients.
type SearchCondition struct {
	Keyword     string     `json:"keyword"`
	IsActive    *bool      `json:"is_active"`
	IsDeleted   bool       `json:"is_deleted"`
	FranchiseID *uuid.UUID `json:"-"`
}

// SearchInput is the body of POST /api/users/search.
type SearchInput struct {
	SearchCondition SearchCondition     `json:"searchCondition"`
	PageInfo        pagination.PageInfo `json:"pageInfo"`
}

// Item is the administrative view of a user.
type Item struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	AvatarURL  string    `json:"avatar_url"`
	IsActive   bool      `json:"is_active"`
	IsDeleted  bool      `json:"is_deleted"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var auditFields = []string{"email", "name", "phone", "avatar_url", "is_active"}

func toItem(u models.User) Item {
	return Item{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Phone:      lo.FromPtr(u.Phone),
		AvatarURL:  lo.FromPtr(u.AvatarURL),
		IsActive:   u.IsActive,
		IsDeleted:  u.IsDeleted,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func snapshot(u models.User) map[string]any {
	return map[string]any{
		"email":      u.Email,
		"name":       u.Name,
		"phone":      lo.FromPtr(u.Phone),
		"avatar_url": lo.FromPtr(u.AvatarURL),
		"is_active":  u.IsActive,
	}
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		Name:         strings.TrimSpace(c.Name),
		Phone:        c.Phone,
		AvatarURL:    c.AvatarURL,
		IsVerified:   c.IsVerified,
		IsActive:     true,
	}
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
