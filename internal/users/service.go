package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franchisehub/backoffice/internal/audit"
	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already exists")
	ErrStatusNoChange  = errors.New("user status unchanged")
	ErrOwnStatus       = errors.New("cannot change own status")
	ErrForeignUser     = errors.New("user outside caller franchise")
	errMissingPassword = errors.New("password hasher required")
)

const (
	msgNotFound    = "User not found"
	msgEmailTaken  = "Email already exists"
	msgStatusSame  = "User status is same as before"
	msgOwnStatus   = "You cannot change your own status"
	msgForeignUser = "You do not have access to this user"
)

type usersRepository interface {
	FindLive(ctx context.Context, id uuid.UUID) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (int64, error)
	IncrementTokenVersion(ctx context.Context, id uuid.UUID) (int, error)
	InFranchise(ctx context.Context, userID, franchiseID uuid.UUID) (bool, error)
	Search(ctx context.Context, cond SearchCondition, page pagination.PageInfo) ([]models.User, int64, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// ServiceParams wires the user directory.
type ServiceParams struct {
	Repo      usersRepository
	Passwords passwordHasher
	Audit     audit.Recorder
	Logger    *logger.Logger
}

// Service manages back-office user accounts.
type Service struct {
	repo      usersRepository
	passwords passwordHasher
	audit     audit.Recorder
	logg      *logger.Logger
}

// NewService validates params and constructs the user directory.
func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("users repository required")
	case p.Passwords == nil:
		return nil, errMissingPassword
	case p.Audit == nil:
		return nil, fmt.Errorf("audit recorder required")
	}
	return &Service{repo: p.Repo, passwords: p.Passwords, audit: p.Audit, logg: p.Logger}, nil
}

// Create registers an account. Accounts created by an administrator are
// verified immediately and can log in once they hold an assignment.
func (s *Service) Create(ctx context.Context, in CreateInput, actor uuid.UUID) (*Item, error) {
	email := NormalizeEmail(in.Email)

	taken, err := s.repo.EmailTaken(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
	}
	if taken {
		return nil, emailTakenError()
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Phone:        trimmed(in.Phone),
		AvatarURL:    trimmed(in.AvatarURL),
		IsVerified:   true,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, emailTakenError()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityUser,
		EntityID:   user.ID,
		Action:     enums.AuditActionCreate,
		NewData:    audit.Pick(snapshot(*user), auditFields),
		ChangedBy:  actor,
	})

	item := toItem(*user)
	return &item, nil
}

// Get returns a non-deleted user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	item := toItem(*user)
	return &item, nil
}

// ChangeStatus blocks or unblocks an account. FRANCHISE-scoped callers may
// only touch users assigned to their franchise, and nobody may change their
// own status. Blocking bumps the token version first, so every session of
// the account is invalid before the flag flips.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, active bool, actor uuid.UUID, caller *auth.UserContext) error {
	if id == actor {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrOwnStatus, msgOwnStatus).
			WithDetails([]pkgerrors.FieldError{{Field: "id", Message: msgOwnStatus}})
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureVisible(ctx, id, caller); err != nil {
		return err
	}
	if current.IsActive == active {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrStatusNoChange, msgStatusSame).
			WithDetails([]pkgerrors.FieldError{{Field: "is_active", Message: msgStatusSame}})
	}

	if !active {
		if _, err := s.repo.IncrementTokenVersion(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke sessions")
		}
	}
	rows, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "change user status")
	}
	if rows == 0 {
		return notFoundError()
	}

	s.audit.Log(ctx, audit.Entry{
		EntityType: enums.AuditEntityUser,
		EntityID:   id,
		Action:     enums.AuditActionChangeStatus,
		OldData:    map[string]any{"is_active": current.IsActive},
		NewData:    map[string]any{"is_active": active},
		ChangedBy:  actor,
	})
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"target_user_id": id.String(), "is_active": active})
		s.logg.Info(logCtx, "user.status_changed")
	}
	return nil
}

// Search returns one page of users. FRANCHISE-scoped callers only see
// users assigned to their franchise.
func (s *Service) Search(ctx context.Context, in SearchInput, caller *auth.UserContext) (pagination.Page[Item], error) {
	cond := in.SearchCondition
	cond.FranchiseID = nil
	if caller != nil && !caller.IsGlobal() {
		if caller.FranchiseID == nil {
			return pagination.Page[Item]{}, foreignUserError()
		}
		cond.FranchiseID = caller.FranchiseID
	}

	rows, total, err := s.repo.Search(ctx, cond, in.PageInfo)
	if err != nil {
		return pagination.Page[Item]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search users")
	}
	items := lo.Map(rows, func(u models.User, _ int) Item { return toItem(u) })
	return pagination.NewPage(items, in.PageInfo, total), nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindLive(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundError()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *Service) ensureVisible(ctx context.Context, id uuid.UUID, caller *auth.UserContext) error {
	if caller == nil || caller.IsGlobal() {
		return nil
	}
	if caller.FranchiseID == nil {
		return foreignUserError()
	}
	member, err := s.repo.InFranchise(ctx, id, *caller.FranchiseID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check franchise membership")
	}
	if !member {
		return foreignUserError()
	}
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func notFoundError() error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, msgNotFound)
}

func emailTakenError() error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrEmailTaken, msgEmailTaken).
		WithDetails([]pkgerrors.FieldError{{Field: "email", Message: msgEmailTaken}})
}

func foreignUserError() error {
	return pkgerrors.Wrap(pkgerrors.CodeForbidden, ErrForeignUser, msgForeignUser)
}
