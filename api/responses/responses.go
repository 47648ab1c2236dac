// Package responses writes the JSON envelopes every endpoint returns.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/types"
	zlog "github.com/rs/zerolog/log"
)

var errUnknown = errors.New("unknown error")

// publicCodes are the codes whose own message reaches the client. Every
// other code answers with the generic message of its metadata.
var publicCodes = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:    true,
	pkgerrors.CodeUnauthorized:  true,
	pkgerrors.CodeAccessExpired: true,
	pkgerrors.CodeForbidden:     true,
	pkgerrors.CodeNotFound:      true,
	pkgerrors.CodeConflict:      true,
	pkgerrors.CodeIdempotency:   true,
	pkgerrors.CodeRateLimit:     true,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Success: true, Data: data})
}

// WriteError is the only place errors become HTTP responses. Untyped errors
// are reported as INTERNAL_ERROR. A nil logger skips logging.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errUnknown
	}
	status, body := envelopeFor(err)

	if logg != nil {
		fields := pkgerrors.Dump(err).Fields()
		fields["status"] = status
		ctx = logg.WithFields(ctx, fields)
		if status >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, status, body)
}

func envelopeFor(err error) (int, types.ErrorEnvelope) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	body := types.ErrorEnvelope{
		Code:    string(typed.Code()),
		Message: meta.PublicMessage,
		Error:   []pkgerrors.FieldError{},
	}
	if publicCodes[typed.Code()] && typed.Message() != "" {
		body.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		switch {
		case typed.Fields() != nil:
			body.Error = typed.Fields()
		case typed.Details() != nil:
			body.Error = typed.Details()
		}
	}
	return meta.HTTPStatus, body
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zlog.Error().Err(err).Int("status", status).Msg("response.encode_failed")
	}
}
