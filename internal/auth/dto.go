package auth

import (
	"github.com/franchisehub/backoffice/internal/users"
	pkgAuth "github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/auth/session"
	"github.com/google/uuid"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SwitchContextRequest selects a franchise context; a null franchise_id
// selects the GLOBAL context.
type SwitchContextRequest struct {
	FranchiseID *uuid.UUID `json:"franchise_id"`
}

// Profile is returned by login and GET /api/auth.
type Profile struct {
	User          *users.UserDTO        `json:"user"`
	Roles         []pkgAuth.UserContext `json:"roles"`
	ActiveContext *pkgAuth.UserContext  `json:"active_context"`
}

// LoginResult pairs the issued tokens with the caller's profile. Tokens
// travel in cookies only.
type LoginResult struct {
	Tokens  session.TokenPair
	Profile Profile
}

// SwitchResult is produced by a successful context switch.
type SwitchResult struct {
	Tokens  session.TokenPair
	Context *pkgAuth.UserContext
}
