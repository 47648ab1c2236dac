// Package seed installs the default roles and the bootstrap super admin.
package seed

import (
	"context"
	"fmt"

	"github.com/franchisehub/backoffice/internal/auth"
	"github.com/franchisehub/backoffice/internal/roles"
	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/security"
)

// Result reports what a run created.
type Result struct {
	RolesCreated int
	AdminCreated bool
}

// Run seeds the default roles, then the bootstrap admin when configured.
// Both steps are idempotent.
func Run(ctx context.Context, cfg *config.Config, client *db.Client, logg *logger.Logger) (Result, error) {
	var res Result

	roleSvc, err := roles.NewService(roles.NewRepository(client.DB()), logg)
	if err != nil {
		return res, err
	}
	res.RolesCreated, err = roleSvc.SeedDefaults(ctx)
	if err != nil {
		return res, fmt.Errorf("seed roles: %w", err)
	}

	res.AdminCreated, err = auth.BootstrapAdmin(ctx, auth.BootstrapParams{
		DB:        client,
		Config:    cfg.Bootstrap,
		Passwords: security.NewHasher(cfg.Password),
		Logger:    logg,
	})
	if err != nil {
		return res, fmt.Errorf("bootstrap admin: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"roles_created": res.RolesCreated,
			"admin_created": res.AdminCreated,
		}), "seed.completed")
	}
	return res, nil
}
