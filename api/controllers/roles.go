package controllers

import (
	"context"
	"net/http"

	"github.com/franchisehub/backoffice/api/responses"
	"github.com/franchisehub/backoffice/internal/roles"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
)

// RoleLister lists assignable roles.
type RoleLister interface {
	ListRoles(ctx context.Context) ([]roles.Item, error)
}

// ListRoles returns the assignable roles.
func ListRoles(svc RoleLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "role service unavailable"))
			return
		}
		items, err := svc.ListRoles(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
