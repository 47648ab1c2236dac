package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/franchisehub/backoffice/internal/assignments"
	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/internal/roles"
	"github.com/franchisehub/backoffice/internal/users"
	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/franchisehub/backoffice/pkg/logger"
	"gorm.io/gorm"
)

type passwordHasher interface {
	Hash(password string) (string, error)
}

// BootstrapParams names the dependencies for the first super admin seed.
type BootstrapParams struct {
	DB        *db.Client
	Config    config.BootstrapConfig
	Passwords passwordHasher
	Logger    *logger.Logger
}

// BootstrapAdmin ensures a verified user with a live GLOBAL SUPER_ADMIN
// assignment exists for the configured email. Roles must already be seeded.
// It reports whether anything was created.
func BootstrapAdmin(ctx context.Context, p BootstrapParams) (bool, error) {
	if !p.Config.Enabled() {
		return false, nil
	}
	if p.DB == nil || p.Passwords == nil {
		return false, fmt.Errorf("bootstrap: database and password hasher required")
	}

	email := users.NormalizeEmail(p.Config.AdminEmail)
	hash, err := p.Passwords.Hash(p.Config.AdminPassword)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap password: %w", err)
	}

	created := false
	err = p.DB.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		roleRepo := roles.NewRepository(tx)
		assignmentRepo := assignments.NewRepository(tx)

		user, err := userRepo.FindByEmail(ctx, email)
		switch {
		case repo.IsNotFound(err):
			user, err = userRepo.Create(ctx, users.CreateUserDTO{
				Email:        email,
				PasswordHash: hash,
				Name:         strings.TrimSpace(p.Config.AdminName),
				IsVerified:   true,
			})
			if err != nil {
				return fmt.Errorf("create bootstrap user: %w", err)
			}
			created = true
		case err != nil:
			return fmt.Errorf("lookup bootstrap user: %w", err)
		}

		role, err := roleRepo.FindByCode(ctx, enums.BaseRoleSuperAdmin)
		if err != nil {
			return fmt.Errorf("lookup %s role (seed roles first): %w", enums.BaseRoleSuperAdmin, err)
		}

		if _, err := assignmentRepo.FindLiveForPair(ctx, user.ID, nil); err == nil {
			return nil
		} else if !repo.IsNotFound(err) {
			return fmt.Errorf("lookup bootstrap assignment: %w", err)
		}

		if err := assignmentRepo.Create(ctx, &models.UserFranchiseRole{
			UserID:   user.ID,
			RoleID:   role.ID,
			Note:     "bootstrap",
			IsActive: true,
		}); err != nil {
			return fmt.Errorf("create bootstrap assignment: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if created && p.Logger != nil {
		p.Logger.Info(p.Logger.WithField(ctx, "email", email), "bootstrap admin ensured")
	}
	return created, nil
}
