package auth

import (
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserContext is one role a user can act under. FranchiseID and
// FranchiseName are nil for GLOBAL contexts; FranchiseName is also nil when
// the franchise could not be found.
type UserContext struct {
	Role          enums.BaseRole  `json:"role"`
	Scope         enums.RoleScope `json:"scope"`
	FranchiseID   *uuid.UUID      `json:"franchise_id"`
	FranchiseName *string         `json:"franchise_name"`
}

// IsGlobal reports whether the context is system-wide.
func (c UserContext) IsGlobal() bool {
	return c.Scope == enums.RoleScopeGlobal
}

// SameFranchise reports whether the context targets franchiseID. A nil
// franchiseID matches GLOBAL contexts.
func (c UserContext) SameFranchise(franchiseID *uuid.UUID) bool {
	if c.FranchiseID == nil || franchiseID == nil {
		return c.FranchiseID == nil && franchiseID == nil
	}
	return *c.FranchiseID == *franchiseID
}

// SessionPayload is the data carried by both halves of a token pair.
type SessionPayload struct {
	UserID  uuid.UUID
	Context *UserContext
	Version int
}

// SessionClaims represents the typed JWT issued to clients. Access and
// refresh tokens share the shape and differ by secret and lifetime.
type SessionClaims struct {
	UserID  uuid.UUID    `json:"id"`
	Context *UserContext `json:"context"`
	Version int          `json:"version"`
	jwt.RegisteredClaims
}

// Payload returns the session data embedded in the claims.
func (c *SessionClaims) Payload() SessionPayload {
	return SessionPayload{UserID: c.UserID, Context: c.Context, Version: c.Version}
}
