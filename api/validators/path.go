package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ParseUUIDParam reads a chi path parameter as a UUID.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.Invalid("Invalid id", pkgerrors.FieldError{Field: name, Message: name + " must be a valid UUID"})
	}
	return id, nil
}
