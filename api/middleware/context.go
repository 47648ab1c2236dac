package middleware

import (
	"context"

	"github.com/franchisehub/backoffice/pkg/auth"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxSession contextKey = "session"
)

// WithSession injects the authenticated session into the context.
func WithSession(ctx context.Context, payload auth.SessionPayload) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, payload)
}

// SessionFromContext returns the authenticated session, if any.
func SessionFromContext(ctx context.Context) (auth.SessionPayload, bool) {
	if ctx == nil {
		return auth.SessionPayload{}, false
	}
	payload, ok := ctx.Value(ctxSession).(auth.SessionPayload)
	return payload, ok
}

// UserIDFromContext returns the authenticated user id or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	payload, ok := SessionFromContext(ctx)
	if !ok {
		return uuid.Nil
	}
	return payload.UserID
}

// UserContextFromContext returns the selected context, nil when none is
// selected or the request is unauthenticated.
func UserContextFromContext(ctx context.Context) *auth.UserContext {
	payload, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}
	return payload.Context
}
