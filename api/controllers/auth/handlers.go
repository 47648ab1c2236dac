package auth

import (
	"net/http"

	"github.com/franchisehub/backoffice/api/middleware"
	"github.com/franchisehub/backoffice/api/responses"
	"github.com/franchisehub/backoffice/api/validators"
	"github.com/franchisehub/backoffice/internal/auth"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
)

func serviceMissing(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
}

// Login verifies credentials, sets the session cookies and returns the
// caller's profile.
func Login(svc auth.Service, cookies Cookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceMissing(w, r, logg)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.Set(w, result.Tokens)
		responses.WriteSuccess(w, result.Profile)
	}
}

// Logout bumps the token version and clears the cookies.
func Logout(svc auth.Service, cookies Cookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceMissing(w, r, logg)
			return
		}

		if err := svc.Logout(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.Clear(w)
		responses.WriteSuccess(w, nil)
	}
}

// Me returns the user, the contexts they hold and the selected one.
func Me(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceMissing(w, r, logg)
			return
		}

		ctx := r.Context()
		profile, err := svc.Me(ctx, middleware.UserIDFromContext(ctx), middleware.UserContextFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// SwitchContext selects another held context and reissues the cookies.
func SwitchContext(svc auth.Service, cookies Cookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceMissing(w, r, logg)
			return
		}

		var body auth.SwitchContextRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SwitchContext(r.Context(), middleware.UserIDFromContext(r.Context()), body.FranchiseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.Set(w, result.Tokens)
		responses.WriteSuccess(w, nil)
	}
}

// Refresh rotates the pair held in the refresh_token cookie.
func Refresh(svc auth.Service, cookies Cookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceMissing(w, r, logg)
			return
		}

		var token string
		if c, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
			token = c.Value
		}

		tokens, err := svc.Refresh(r.Context(), token)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				cookies.Clear(w)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.Set(w, tokens)
		responses.WriteSuccess(w, nil)
	}
}
