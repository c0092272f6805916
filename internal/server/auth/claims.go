// Package auth reads the provider's session tokens. Signatures are checked by
// the provider on every call that uses the token; medauth only peeks at the
// claims to route the user.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the provider's access token medauth looks at.
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Role returns the application role carried on the token. The top-level
// "role" claim is the database role ("authenticated") and is ignored.
// Returns "" when no role is present.
func (c *Claims) Role() models.Role {
	for _, md := range []map[string]any{c.AppMetadata, c.UserMetadata} {
		if r, ok := md["role"].(string); ok && r != "" {
			return models.ParseRole(r)
		}
	}
	return ""
}

// ReadClaims decodes accessToken without verifying its signature.
func ReadClaims(accessToken string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return claims, nil
}

// Expired reports whether the token's exp claim is before now. Tokens
// without exp never expire here.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the access token cookie set by the callback.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get(common.AuthorizationHeaderName); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", common.ErrInvalidToken
		}
		return strings.TrimSpace(token), nil
	}
	if c, err := r.Cookie(common.AccessTokenCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", common.ErrorUnauthorized
}
