package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/franchisehub/backoffice/api/responses"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	pkgredis "github.com/franchisehub/backoffice/pkg/redis"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	idempotentReplayHeader = "Idempotent-Replayed"
	idempotencyTTL         = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold its key.
	pendingTTL    = time.Minute
	pendingMarker = "pending"

	msgIdempotencyKeyRequired = "Idempotency-Key header required"
	msgIdempotencyInFlight    = "A request with this Idempotency-Key is still in progress"
	msgIdempotencyReused      = "Idempotency-Key reused with a different request body"
)

// idempotentRoutes lists the creation endpoints whose first successful
// response is replayed for a repeated key.
var idempotentRoutes = map[string]time.Duration{
	http.MethodPost + " /api/assignments": idempotencyTTL,
	http.MethodPost + " /api/franchises":  idempotencyTTL,
}

type idempotencyRecord struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency requires an Idempotency-Key on creation routes. The key is
// reserved before the handler runs so concurrent duplicates are refused.
// Only 2xx responses are kept for replay; a failed attempt releases the key.
// With no store configured the middleware is a passthrough.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			id := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if id == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.Invalid(msgIdempotencyKeyRequired, pkgerrors.FieldError{Field: idempotencyHeader, Message: msgIdempotencyKeyRequired}))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Request body could not be read"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			requestHash := hashBody(body)
			key := store.IdempotencyKey(idempotencyScope(r), id)

			reserved, err := store.SetNX(ctx, key, pendingMarker, pendingTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replay(ctx, store, key, requestHash, logg, w)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			// The client already has its response; persisting must not be
			// cut short by a cancelled request context.
			persistCtx := context.WithoutCancel(ctx)
			status := capture.statusCode()
			if status < http.StatusOK || status >= http.StatusMultipleChoices {
				if err := store.Del(persistCtx, key); err != nil {
					logError(ctx, logg, "idempotency.release_failed", err)
				}
				return
			}

			payload, err := json.Marshal(idempotencyRecord{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				RequestHash: requestHash,
			})
			if err == nil {
				err = store.Set(persistCtx, key, string(payload), ttl)
			}
			if err != nil {
				logError(ctx, logg, "idempotency.persist_failed", err)
			}
		})
	}
}

func replay(ctx context.Context, store pkgredis.IdempotencyStore, key, requestHash string, logg *logger.Logger, w http.ResponseWriter) {
	stored, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.Nil):
		// Released between SetNX and Get: the first attempt failed.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, msgIdempotencyInFlight))
		return
	case err != nil:
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key"))
		return
	case stored == pendingMarker:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, msgIdempotencyInFlight))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, msgIdempotencyReused))
		return
	}

	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(idempotentReplayHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(body)
}

// idempotencyScope keeps keys private to one caller in one selected context.
func idempotencyScope(r *http.Request) string {
	franchise := "global"
	if uc := UserContextFromContext(r.Context()); uc != nil && uc.FranchiseID != nil {
		franchise = uc.FranchiseID.String()
	}
	return strings.Join([]string{
		UserIDFromContext(r.Context()).String(),
		franchise,
		r.Method,
		r.URL.Path,
	}, "|")
}

func routeTTL(method, path string) (time.Duration, bool) {
	ttl, ok := idempotentRoutes[method+" "+path]
	return ttl, ok
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
