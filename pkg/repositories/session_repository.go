package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

const (
	sessionKeyPrefix = "session:ctx:" // Key for session context: session:ctx:{session_id}

	// SessionTTL is the durable lifetime of a session context. Every write
	// refreshes it, so an active session never expires mid-conversation.
	SessionTTL = 7 * 24 * time.Hour
)

// SessionRepository is the durable session store: a TTL-backed key-value
// store keyed by session id. Expiry is the only deletion path.
type SessionRepository interface {
	// Get retrieves a session context. Returns apperrors.ErrNotFound when the
	// key is absent or expired.
	Get(ctx context.Context, sessionID string) (*models.SessionContext, error)
	// Put stores a session context and refreshes its TTL to SessionTTL from now.
	Put(ctx context.Context, sessionCtx *models.SessionContext) error
}

// sessionRepository implements SessionRepository on Redis.
type sessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client}
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string) (*models.SessionContext, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session context: %w", err)
	}

	var sessionCtx models.SessionContext
	if err := json.Unmarshal([]byte(data), &sessionCtx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session context: %w", err)
	}
	return &sessionCtx, nil
}

func (r *sessionRepository) Put(ctx context.Context, sessionCtx *models.SessionContext) error {
	data, err := json.Marshal(sessionCtx)
	if err != nil {
		return fmt.Errorf("failed to marshal session context: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(sessionCtx.SessionID), data, SessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to put session context: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
