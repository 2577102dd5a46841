// Package auth provides JWT-based authentication for windrose-engine.
// Tokens are validated against configured JWKS endpoints; the claims carry
// the conversational session identity used by the project lifecycle tools.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims is the JWT claims structure accepted by this engine. It embeds
// RegisteredClaims for the standard fields (sub, iss, exp) and adds the chat
// session identity.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid,omitempty"`   // Chat session identifier
	Email     string `json:"email,omitempty"` // User email address
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// SessionIDFromContext extracts the session identifier from JWT claims,
// falling back to the token subject. Returns empty string when the request
// is unauthenticated; lifecycle tools then accept an explicit session_id
// argument instead.
func SessionIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	if claims.SessionID != "" {
		return claims.SessionID
	}
	return claims.Subject
}

// UserIDFromContext extracts the user ID (token subject) from JWT claims.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}
