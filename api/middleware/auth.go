package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/franchisehub/backoffice/api/responses"
	pkgAuth "github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/auth/session"
	"github.com/franchisehub/backoffice/pkg/config"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/google/uuid"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

const (
	msgAccessExpired = "ACCESS_TOKEN_EXPIRED"
	msgNotLoggedIn   = "You are not logged in. Please log in to continue!"
	msgTokenExpired  = "Access token has expired"
	msgInvalidToken  = "Invalid token"
)

// VersionChecker reads the live token version of a verified, non-deleted user.
type VersionChecker interface {
	ActiveTokenVersion(ctx context.Context, userID uuid.UUID) (int, error)
}

// Authenticate validates the access token from the access_token cookie or,
// failing that, the bearer header. The embedded version must match the
// user's current token version.
func Authenticate(cfg config.JWTConfig, versions VersionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" {
				if hasCookie(r, RefreshTokenCookie) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeAccessExpired, msgAccessExpired))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgNotLoggedIn))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := msgInvalidToken
				if pkgAuth.IsExpired(err) {
					msg = msgTokenExpired
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			if versions != nil {
				current, err := versions.ActiveTokenVersion(r.Context(), claims.UserID)
				if err != nil && !errors.Is(err, session.ErrUserInactive) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if err != nil || current != claims.Version {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidToken))
					return
				}
			}

			payload := claims.Payload()
			ctx := WithSession(r.Context(), payload)
			if logg != nil {
				ctx = logg.WithUserID(ctx, payload.UserID.String())
				if sel := payload.Context; sel != nil {
					franchiseID := ""
					if sel.FranchiseID != nil {
						franchiseID = sel.FranchiseID.String()
					}
					ctx = logg.WithSelection(ctx, string(sel.Role), string(sel.Scope), franchiseID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}

func hasCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}
