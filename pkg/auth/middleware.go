package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware guards the MCP endpoint. Authentication failures are reported
// with RFC 6750 Bearer token error responses.
type Middleware struct {
	validator TokenValidator
	required  bool
	logger    *zap.Logger
}

// NewMiddleware creates an auth middleware. When required is false, requests
// without a token pass through unauthenticated; a token that is present is
// still parsed so tools can read the session identity.
func NewMiddleware(validator TokenValidator, required bool, logger *zap.Logger) *Middleware {
	return &Middleware{
		validator: validator,
		required:  required,
		logger:    logger.Named("auth"),
	}
}

// Wrap validates the Bearer token and injects claims into the request context.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if m.required {
				m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_request", "Missing access token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Debug("Token validation failed",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			if m.required {
				m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_token", "The access token is invalid or expired")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, TokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// writeWWWAuthenticate writes an RFC 6750 Bearer token error response.
// See: https://datatracker.ietf.org/doc/html/rfc6750#section-3
func (m *Middleware) writeWWWAuthenticate(w http.ResponseWriter, status int, errorCode, description string) {
	headerValue := `Bearer error="` + errorCode + `", error_description="` + description + `"`
	w.Header().Set("WWW-Authenticate", headerValue)
	w.WriteHeader(status)
}
