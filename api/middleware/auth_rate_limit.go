package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/franchisehub/backoffice/api/responses"
	"github.com/franchisehub/backoffice/pkg/config"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
	pkgredis "github.com/franchisehub/backoffice/pkg/redis"
)

const msgTooManyAttempts = "Too many login attempts. Please try again later."

// LoginRateLimitPolicy throttles login attempts per client IP and per email.
type LoginRateLimitPolicy struct {
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

// LoginPolicyFromConfig reads the login limits from configuration.
func LoginPolicyFromConfig(cfg config.AuthRateLimitConfig) LoginRateLimitPolicy {
	return LoginRateLimitPolicy{
		Window:     cfg.LoginWindow,
		IPLimit:    cfg.LoginIPLimit,
		EmailLimit: cfg.LoginEmailLimit,
	}
}

func (p LoginRateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.EmailLimit > 0)
}

// LoginRateLimit enforces fixed-window counters in redis. With no limiter
// configured the middleware is a passthrough.
func LoginRateLimit(policy LoginRateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if ip := clientIP(r); policy.IPLimit > 0 && ip != "" {
				allowed, count, err := limiter.FixedWindowAllow(ctx, "login:ip:"+ip, int64(policy.IPLimit), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					rejectAttempt(ctx, logg, w, map[string]any{"scope": "ip", "ip": ip, "attempts": count, "limit": policy.IPLimit})
					return
				}
			}

			if policy.EmailLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := extractEmail(body); email != "" {
					hash := hashValue(email)
					allowed, count, err := limiter.FixedWindowAllow(ctx, "login:email:"+hash, int64(policy.EmailLimit), policy.Window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						rejectAttempt(ctx, logg, w, map[string]any{"scope": "email", "email_hash": hash, "attempts": count, "limit": policy.EmailLimit})
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectAttempt(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, fields map[string]any) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, msgTooManyAttempts))
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
