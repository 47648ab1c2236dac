package users

import (
	"context"
	"net/http"

	"github.com/franchisehub/backoffice/api/middleware"
	"github.com/franchisehub/backoffice/api/responses"
	"github.com/franchisehub/backoffice/api/validators"
	"github.com/franchisehub/backoffice/internal/users"
	"github.com/franchisehub/backoffice/pkg/auth"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
)

// Service is the user surface consumed by the handlers.
type Service interface {
	Create(ctx context.Context, in users.CreateInput, actor uuid.UUID) (*users.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*users.Item, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, active bool, actor uuid.UUID, caller *auth.UserContext) error
	Search(ctx context.Context, in users.SearchInput, caller *auth.UserContext) (pagination.Page[users.Item], error)
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
}

// Create registers a back-office account.
func Create(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body users.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), body, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func Get(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ChangeStatus blocks or unblocks an account.
func ChangeStatus(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body users.StatusInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		err = svc.ChangeStatus(ctx, id, *body.IsActive, middleware.UserIDFromContext(ctx), middleware.UserContextFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// Search returns a page of users visible to the caller.
func Search(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body users.SearchInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Search(r.Context(), body, middleware.UserContextFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
