package assignments

import (
	"context"
	"net/http"

	"github.com/franchisehub/backoffice/api/middleware"
	"github.com/franchisehub/backoffice/api/responses"
	"github.com/franchisehub/backoffice/api/validators"
	"github.com/franchisehub/backoffice/internal/assignments"
	"github.com/franchisehub/backoffice/pkg/auth"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/pagination"
	"github.com/google/uuid"
)

// Service is the assignment surface consumed by the handlers.
type Service interface {
	Create(ctx context.Context, in assignments.CreateInput, actor uuid.UUID) (*assignments.Item, error)
	Update(ctx context.Context, id uuid.UUID, in assignments.UpdateInput, actor uuid.UUID) (*assignments.Item, error)
	SoftDelete(ctx context.Context, id uuid.UUID, requester uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID, actor uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID, caller *auth.UserContext) (*assignments.Item, error)
	ListByUser(ctx context.Context, userID uuid.UUID, caller *auth.UserContext) ([]assignments.Item, error)
	ListByFranchise(ctx context.Context, franchiseID uuid.UUID) ([]assignments.Item, error)
	Search(ctx context.Context, in assignments.SearchInput, caller *auth.UserContext) (pagination.Page[assignments.Item], error)
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
}

// Create assigns a role to a user, globally or within one franchise.
func Create(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body assignments.CreateInput
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

// Get returns one assignment by id.
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

		item, err := svc.Get(r.Context(), id, middleware.UserContextFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// Search returns a page of assignments matching the search condition.
func Search(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body assignments.SearchInput
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

// Update changes the role of an assignment.
func Update(svc Service, logg *logger.Logger) http.HandlerFunc {
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

		var body assignments.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), id, body, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// Delete soft-deletes an assignment.
func Delete(svc Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.SoftDelete(r.Context(), id, middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// Restore brings a soft-deleted assignment back.
func Restore(svc Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.Restore(r.Context(), id, middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// ListByUser returns the live assignments of the user in the path.
func ListByUser(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByUser(r.Context(), userID, middleware.UserContextFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ListByFranchise returns the live assignments of the franchise in the path.
func ListByFranchise(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		franchiseID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByFranchise(r.Context(), franchiseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
