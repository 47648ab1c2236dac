package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrNotFound is returned when a role does not exist or is deleted.
var ErrNotFound = errors.New("role not found")

type rolesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Role, error)
	FindByCode(ctx context.Context, code enums.BaseRole) (*models.Role, error)
	ListActive(ctx context.Context, exclude ...enums.BaseRole) ([]models.Role, error)
	Create(ctx context.Context, role *models.Role) error
}

// Service is the Role Directory.
type Service struct {
	repo rolesRepository
	logg *logger.Logger
}

// NewService constructs the role directory.
func NewService(r rolesRepository, logg *logger.Logger) (*Service, error) {
	if r == nil {
		return nil, fmt.Errorf("roles repository required")
	}
	return &Service{repo: r, logg: logg}, nil
}

// GetRoleByID returns the non-deleted role with id or ErrNotFound.
func (s *Service) GetRoleByID(ctx context.Context, id uuid.UUID) (*Summary, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load role %s: %w", id, err)
	}
	summary := toSummary(*role)
	return &summary, nil
}

// GetByIDs batch-loads non-deleted roles. The result only holds roles that
// were found.
func (s *Service) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Summary, error) {
	rows, err := s.repo.FindByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return lo.Map(rows, func(r models.Role, _ int) Summary { return toSummary(r) }), nil
}

// ListRoles returns the assignable roles. SUPER_ADMIN is never offered.
func (s *Service) ListRoles(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.ListActive(ctx, enums.BaseRoleSuperAdmin)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return lo.Map(rows, func(r models.Role, _ int) Item { return toItem(r) }), nil
}

// SeedDefaults creates the default roles that do not exist yet. Existing
// roles are left untouched so a seeded scope never changes.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, def := range Defaults {
		_, err := s.repo.FindByCode(ctx, def.Code)
		if err == nil {
			continue
		}
		if !repo.IsNotFound(err) {
			return created, fmt.Errorf("lookup role %s: %w", def.Code, err)
		}

		role := &models.Role{
			Code:        def.Code,
			Name:        def.Name,
			Description: def.Description,
			Scope:       def.Code.DefaultScope(),
			IsActive:    true,
		}
		if err := s.repo.Create(ctx, role); err != nil {
			if db.IsUniqueViolation(err, "") {
				continue
			}
			return created, fmt.Errorf("create role %s: %w", def.Code, err)
		}
		created++
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "role", def.Code), "role seeded")
		}
	}
	return created, nil
}
