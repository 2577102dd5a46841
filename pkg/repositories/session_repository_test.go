package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

func newTestSessionRepo(t *testing.T) (SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRepository(client), mr
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	repo, _ := newTestSessionRepo(t)
	ctx := context.Background()

	sessionCtx := &models.SessionContext{
		SessionID:      "sess-1",
		UserID:         "user-1",
		ActiveProject:  "amarillo-wind-farm",
		ProjectHistory: []string{"amarillo-wind-farm", "lubbock-wind-farm"},
		LastUpdated:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Put(ctx, sessionCtx))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sessionCtx.ActiveProject, got.ActiveProject)
	assert.Equal(t, sessionCtx.ProjectHistory, got.ProjectHistory)
	assert.Equal(t, sessionCtx.UserID, got.UserID)
}

func TestSessionRepositoryMissing(t *testing.T) {
	repo, _ := newTestSessionRepo(t)

	_, err := repo.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionRepositoryTTL(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &models.SessionContext{SessionID: "sess-ttl"}))
	ttl := mr.TTL("session:ctx:sess-ttl")
	assert.Equal(t, SessionTTL, ttl)

	// A later write rolls the TTL forward again.
	mr.FastForward(24 * time.Hour)
	require.NoError(t, repo.Put(ctx, &models.SessionContext{SessionID: "sess-ttl"}))
	assert.Equal(t, SessionTTL, mr.TTL("session:ctx:sess-ttl"))
}

func TestSessionRepositoryExpiry(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &models.SessionContext{SessionID: "sess-exp"}))
	mr.FastForward(SessionTTL + time.Minute)

	_, err := repo.Get(ctx, "sess-exp")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
