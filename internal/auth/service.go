package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/internal/users"
	pkgAuth "github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/auth/session"
	"github.com/franchisehub/backoffice/pkg/db/models"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/metrics"
	"github.com/google/uuid"
)

const invalidCredentialsMessage = "Invalid email or password"

// ErrContextNotAvailable is returned when a switch targets a context the
// user does not hold.
var ErrContextNotAvailable = errors.New("context not available")

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Me(ctx context.Context, userID uuid.UUID, active *pkgAuth.UserContext) (*Profile, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	SwitchContext(ctx context.Context, userID uuid.UUID, franchiseID *uuid.UUID) (*SwitchResult, error)
	Refresh(ctx context.Context, refreshToken string) (session.TokenPair, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	ActiveTokenVersion(ctx context.Context, id uuid.UUID) (int, error)
}

type contextResolver interface {
	GetUserContexts(ctx context.Context, userID uuid.UUID) ([]pkgAuth.UserContext, error)
	Match(ctx context.Context, userID uuid.UUID, franchiseID *uuid.UUID) (*pkgAuth.UserContext, bool, error)
}

type sessionManager interface {
	Issue(ctx context.Context, userID uuid.UUID, selected *pkgAuth.UserContext, version int, reason string) (session.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (session.TokenPair, error)
	Revoke(ctx context.Context, userID uuid.UUID) error
}

type passwordVerifier interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	VerifyDummy(password string)
	NeedsRehash(encoded string) bool
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Contexts       contextResolver
	SessionManager sessionManager
	Passwords      passwordVerifier
	Metrics        *metrics.SessionMetrics
	Logger         *logger.Logger
}

type service struct {
	users     userRepository
	contexts  contextResolver
	session   sessionManager
	passwords passwordVerifier
	metrics   *metrics.SessionMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Contexts == nil {
		return nil, fmt.Errorf("context resolver is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Passwords == nil {
		return nil, fmt.Errorf("password verifier is required")
	}
	return &service{
		users:     params.UserRepo,
		contexts:  params.Contexts,
		session:   params.SessionManager,
		passwords: params.Passwords,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// Login verifies credentials and issues a token pair. A user holding
// exactly one context gets it selected; otherwise no context is selected.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	contexts, err := s.contexts.GetUserContexts(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve contexts")
	}
	var selected *pkgAuth.UserContext
	if len(contexts) == 1 {
		only := contexts[0]
		selected = &only
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}

	tokens, err := s.session.Issue(ctx, user.ID, selected, user.TokenVersion, metrics.IssueLogin)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, user.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "contexts", len(contexts)), "auth.login")
	}

	return &LoginResult{
		Tokens: tokens,
		Profile: Profile{
			User:          users.FromModel(user),
			Roles:         contexts,
			ActiveContext: selected,
		},
	}, nil
}

// Me returns the user, every context they hold and the active one.
func (s *service) Me(ctx context.Context, userID uuid.UUID, active *pkgAuth.UserContext) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	contexts, err := s.contexts.GetUserContexts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve contexts")
	}
	return &Profile{User: users.FromModel(user), Roles: contexts, ActiveContext: active}, nil
}

// Logout invalidates every token issued to the user so far.
func (s *service) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.session.Revoke(ctx, userID)
}

// SwitchContext re-issues tokens for the selected context. The token
// version is unchanged, so tokens carrying the previous context stay valid
// until they expire.
func (s *service) SwitchContext(ctx context.Context, userID uuid.UUID, franchiseID *uuid.UUID) (*SwitchResult, error) {
	version, err := s.users.ActiveTokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrUserInactive) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	selected, ok, err := s.contexts.Match(ctx, userID, franchiseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve contexts")
	}
	if !ok {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrContextNotAvailable, "Invalid context").
			WithDetails([]pkgerrors.FieldError{{Field: "franchise_id", Message: "You do not have a role in the selected context"}})
	}

	tokens, err := s.session.Issue(ctx, userID, selected, version, metrics.IssueSwitch)
	if err != nil {
		return nil, err
	}
	s.metrics.IncContextSwitch(string(selected.Scope))
	return &SwitchResult{Tokens: tokens, Context: selected}, nil
}

// Refresh rotates a refresh token into a new pair.
func (s *service) Refresh(ctx context.Context, refreshToken string) (session.TokenPair, error) {
	return s.session.Refresh(ctx, refreshToken)
}

// authenticate runs the password check even for unknown emails so response
// timing does not reveal which accounts exist.
func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if repo.IsNotFound(err) {
			s.passwords.VerifyDummy(password)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := s.passwords.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || user.IsDeleted || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsVerified {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Account is not verified")
	}
	s.upgradeHash(ctx, user, password)
	return user, nil
}

// upgradeHash re-hashes with the current cost settings after a successful
// login. Failures are logged; the login itself proceeds.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !s.passwords.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.passwords.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(s.logg.WithUserID(ctx, user.ID.String()), map[string]any{"error": err.Error()}), "auth.rehash_failed")
		}
		return
	}
	user.PasswordHash = hash
}
