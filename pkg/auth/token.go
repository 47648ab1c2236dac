package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a signed access JWT for the payload.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload SessionPayload) (string, error) {
	return mint(cfg.AccessSecret, cfg.Issuer, cfg.AccessTokenTTL(), now, payload)
}

// MintRefreshToken issues a signed refresh JWT for the payload.
func MintRefreshToken(cfg config.JWTConfig, now time.Time, payload SessionPayload) (string, error) {
	return mint(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL(), now, payload)
}

// ParseAccessToken validates an access JWT and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*SessionClaims, error) {
	return parse(cfg.AccessSecret, cfg.Issuer, tokenString)
}

// ParseRefreshToken validates a refresh JWT and returns typed claims.
func ParseRefreshToken(cfg config.JWTConfig, tokenString string) (*SessionClaims, error) {
	return parse(cfg.RefreshSecret, cfg.Issuer, tokenString)
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

func mint(secret, issuer string, ttl time.Duration, now time.Time, payload SessionPayload) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwt ttl must be positive")
	}
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	if ctx := payload.Context; ctx != nil {
		if !ctx.Role.IsValid() {
			return "", fmt.Errorf("invalid role %q", ctx.Role)
		}
		if !ctx.Scope.IsValid() {
			return "", fmt.Errorf("invalid scope %q", ctx.Scope)
		}
	}

	claims := SessionClaims{
		UserID:  payload.UserID,
		Context: payload.Context,
		Version: payload.Version,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func parse(secret, issuer, tokenString string) (*SessionClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token missing user id")
	}
	return claims, nil
}
