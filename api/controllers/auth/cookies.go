package auth

import (
	"net/http"
	"time"

	"github.com/franchisehub/backoffice/api/middleware"
	"github.com/franchisehub/backoffice/pkg/auth/session"
	"github.com/franchisehub/backoffice/pkg/config"
)

// Cookies writes and clears the session cookies. Production cookies are
// Secure with SameSite=None so the back-office UI can call cross-site;
// everywhere else they are SameSite=Lax over plain HTTP.
type Cookies struct {
	app config.AppConfig
	jwt config.JWTConfig
}

// NewCookies builds the cookie writer from configuration.
func NewCookies(app config.AppConfig, jwt config.JWTConfig) Cookies {
	return Cookies{app: app, jwt: jwt}
}

// Set writes both halves of the token pair.
func (c Cookies) Set(w http.ResponseWriter, tokens session.TokenPair) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, tokens.AccessToken, c.jwt.AccessTokenTTL()))
	http.SetCookie(w, c.cookie(middleware.RefreshTokenCookie, tokens.RefreshToken, c.jwt.RefreshTokenTTL()))
}

// Clear expires both cookies.
func (c Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
}

func (c Cookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.app.CookieDomain,
		HttpOnly: true,
		MaxAge:   int(ttl.Seconds()),
		SameSite: http.SameSiteLaxMode,
	}
	if c.app.IsProd() {
		ck.Secure = true
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}
