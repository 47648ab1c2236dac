package roles

import (
	"time"

	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/google/uuid"
)

// Summary is the shape returned by the batch lookups.
type Summary struct {
	ID    uuid.UUID
	Code  enums.BaseRole
	Name  string
	Scope enums.RoleScope
}

// Item is the API representation of a role.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Code        enums.BaseRole  `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Scope       enums.RoleScope `json:"scope"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Definition describes a seeded role.
type Definition struct {
	Code        enums.BaseRole
	Name        string
	Description string
}

// Defaults lists the roles every installation starts with.
var Defaults = []Definition{
	{Code: enums.BaseRoleSuperAdmin, Name: "Super Admin", Description: "System owner"},
	{Code: enums.BaseRoleAdmin, Name: "Admin", Description: "System administrator"},
	{Code: enums.BaseRoleManager, Name: "Manager", Description: "Franchise manager"},
	{Code: enums.BaseRoleStaff, Name: "Staff", Description: "Franchise staff"},
	{Code: enums.BaseRoleShipper, Name: "Shipper", Description: "Franchise shipper"},
	{Code: enums.BaseRoleUser, Name: "User", Description: "Normal user"},
}

func toSummary(r models.Role) Summary {
	return Summary{ID: r.ID, Code: r.Code, Name: r.Name, Scope: r.Scope}
}

func toItem(r models.Role) Item {
	return Item{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Scope:       r.Scope,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
