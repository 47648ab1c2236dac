package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/config"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/metrics"
	"github.com/google/uuid"
)

var (
	ErrMissingRefreshToken = errors.New("refresh token is missing")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrUserInactive is returned by VersionStore implementations when the
	// user is missing, deleted or unverified.
	ErrUserInactive = errors.New("user not found or inactive")
)

// VersionStore reads and bumps the per-user token version that invalidates
// outstanding tokens.
type VersionStore interface {
	ActiveTokenVersion(ctx context.Context, userID uuid.UUID) (int, error)
	IncrementTokenVersion(ctx context.Context, userID uuid.UUID) (int, error)
}

// TokenPair is the result of every issuance.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Manager issues, refreshes and revokes token pairs.
type Manager struct {
	cfg      config.JWTConfig
	versions VersionStore
	metrics  *metrics.SessionMetrics
	now      func() time.Time
}

// NewManager constructs a session manager over the user version store.
func NewManager(cfg config.JWTConfig, versions VersionStore, m *metrics.SessionMetrics) (*Manager, error) {
	if versions == nil {
		return nil, fmt.Errorf("version store is required")
	}
	if cfg.AccessTokenTTL() <= 0 {
		return nil, fmt.Errorf("access token ttl must be positive")
	}
	if cfg.RefreshTokenTTL() <= cfg.AccessTokenTTL() {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", cfg.RefreshTokenTTL(), cfg.AccessTokenTTL())
	}
	return &Manager{
		cfg:      cfg,
		versions: versions,
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Issue signs a new access/refresh pair carrying the selected context.
// reason labels the issuance metric.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID, selected *auth.UserContext, version int, reason string) (TokenPair, error) {
	now := m.now().UTC()
	payload := auth.SessionPayload{UserID: userID, Context: selected, Version: version}

	access, err := auth.MintAccessToken(m.cfg, now, payload)
	if err != nil {
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to issue access token")
	}
	refresh, err := auth.MintRefreshToken(m.cfg, now, payload)
	if err != nil {
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to issue refresh token")
	}

	m.metrics.IncIssued(reason)
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(m.cfg.AccessTokenTTL()),
		RefreshExpiresAt: now.Add(m.cfg.RefreshTokenTTL()),
	}, nil
}

// Refresh verifies the refresh token against the stored token version and
// re-issues both tokens with the same selected context.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrMissingRefreshToken, "Refresh token is missing")
	}

	claims, err := auth.ParseRefreshToken(m.cfg, refreshToken)
	if err != nil {
		m.metrics.IncRefreshRejected(metrics.RejectInvalid)
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrInvalidRefreshToken, "Invalid refresh token")
	}

	current, err := m.versions.ActiveTokenVersion(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserInactive) {
			m.metrics.IncRefreshRejected(metrics.RejectUser)
			return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrInvalidRefreshToken, "Invalid refresh token")
		}
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}
	if current != claims.Version {
		m.metrics.IncRefreshRejected(metrics.RejectVersion)
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrInvalidRefreshToken, "Invalid refresh token")
	}

	return m.Issue(ctx, claims.UserID, claims.Context, claims.Version, metrics.IssueRefresh)
}

// Revoke invalidates every outstanding token of the user.
func (m *Manager) Revoke(ctx context.Context, userID uuid.UUID) error {
	if _, err := m.versions.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, ErrUserInactive) {
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "User not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to revoke session")
	}
	return nil
}
