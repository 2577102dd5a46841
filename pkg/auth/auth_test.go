package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedTestToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestParseUnverifiedToken(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	require.NoError(t, err)
	defer client.Close()

	tokenString := signedTestToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		SessionID: "session-1",
	})

	claims, err := client.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "user-42", claims.Subject)
}

func TestParseUnverifiedTokenRejectsGarbage(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	require.NoError(t, err)

	_, err = client.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestSessionIDFromContext(t *testing.T) {
	t.Run("session claim", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ClaimsKey, &Claims{SessionID: "session-1"})
		assert.Equal(t, "session-1", SessionIDFromContext(ctx))
	})

	t.Run("subject fallback", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ClaimsKey, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"},
		})
		assert.Equal(t, "user-42", SessionIDFromContext(ctx))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		assert.Empty(t, SessionIDFromContext(context.Background()))
	})
}

func TestMiddlewareOptionalAuth(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	require.NoError(t, err)
	middleware := NewMiddleware(client, false, zap.NewNop())

	var seenSession string
	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenSession = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no token passes through", func(t *testing.T) {
		seenSession = "unset"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, seenSession)
	})

	t.Run("token injects claims", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer "+signedTestToken(t, &Claims{SessionID: "session-9"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "session-9", seenSession)
	})
}

func TestMiddlewareRequiredAuth(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	require.NoError(t, err)
	middleware := NewMiddleware(client, true, zap.NewNop())

	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_request")
	})

	t.Run("malformed token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("valid token accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer "+signedTestToken(t, &Claims{SessionID: "session-1"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
