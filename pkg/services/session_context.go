package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/auth"
	"github.com/windrose-energy/windrose-engine/pkg/models"
	"github.com/windrose-energy/windrose-engine/pkg/repositories"
)

// sessionCacheFreshness is how long a cached session context is served without
// consulting the durable store.
const sessionCacheFreshness = 5 * time.Minute

// SessionContextManager tracks per-conversation state: the active project and
// a recent-project history, cached in-process over the durable TTL-backed
// store. There is no cross-instance invalidation; bounded staleness is the
// accepted tradeoff. A session is assumed single-writer, so mutations are
// last-writer-wins.
type SessionContextManager interface {
	// GetContext returns the session context, creating and persisting a new
	// one on first reference. When the durable store is unreachable it falls
	// back to a stale cached copy, or fabricates an in-memory-only context.
	GetContext(ctx context.Context, sessionID string) (*models.SessionContext, error)
	// SetActiveProject points the session at a project and records it in the
	// history.
	SetActiveProject(ctx context.Context, sessionID, name string) error
	// AddToHistory records a project as most recently used without changing
	// the active pointer.
	AddToHistory(ctx context.Context, sessionID, name string) error
	// RemoveProjectReferences clears the active pointer (when it references
	// name) and drops name from the history. Used after delete and archive.
	RemoveProjectReferences(ctx context.Context, sessionID, name string) error
	// RenameReferences rewrites the active pointer and history after a
	// project rename.
	RenameReferences(ctx context.Context, sessionID, oldName, newName string) error
}

type sessionContextManager struct {
	store  repositories.SessionRepository
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*cachedSession
}

type cachedSession struct {
	sessionCtx *models.SessionContext
	cachedAt   time.Time
}

// NewSessionContextManager creates a session context manager over the durable
// session store.
func NewSessionContextManager(store repositories.SessionRepository, logger *zap.Logger) SessionContextManager {
	return &sessionContextManager{
		store:  store,
		logger: logger.Named("session"),
		cache:  make(map[string]*cachedSession),
	}
}

func (m *sessionContextManager) GetContext(ctx context.Context, sessionID string) (*models.SessionContext, error) {
	if cached := m.cachedFresh(sessionID); cached != nil {
		return cached.Clone(), nil
	}

	sessionCtx, err := m.store.Get(ctx, sessionID)
	switch {
	case err == nil:
		m.put(sessionID, sessionCtx)
		return sessionCtx.Clone(), nil

	case errors.Is(err, apperrors.ErrNotFound):
		sessionCtx = &models.SessionContext{
			SessionID:   sessionID,
			UserID:      auth.UserIDFromContext(ctx),
			LastUpdated: time.Now().UTC(),
		}
		if putErr := m.store.Put(ctx, sessionCtx); putErr != nil {
			m.logger.Warn("Failed to persist new session context; continuing in-memory only",
				zap.String("session_id", sessionID),
				zap.Error(putErr))
		}
		m.put(sessionID, sessionCtx)
		return sessionCtx.Clone(), nil

	default:
		// Durable store unreachable: a stale cached copy beats nothing.
		if stale := m.cachedAny(sessionID); stale != nil {
			m.logger.Warn("Session store unreachable, serving stale cached context",
				zap.String("session_id", sessionID),
				zap.Error(err))
			return stale.Clone(), nil
		}
		m.logger.Warn("Session store unreachable and nothing cached, fabricating degraded in-memory context",
			zap.String("session_id", sessionID),
			zap.Error(err))
		sessionCtx = &models.SessionContext{
			SessionID:   sessionID,
			UserID:      auth.UserIDFromContext(ctx),
			LastUpdated: time.Now().UTC(),
		}
		m.put(sessionID, sessionCtx)
		return sessionCtx.Clone(), nil
	}
}

func (m *sessionContextManager) SetActiveProject(ctx context.Context, sessionID, name string) error {
	return m.mutate(ctx, sessionID, func(sessionCtx *models.SessionContext) {
		sessionCtx.ActiveProject = name
		sessionCtx.PushHistory(name)
	})
}

func (m *sessionContextManager) AddToHistory(ctx context.Context, sessionID, name string) error {
	return m.mutate(ctx, sessionID, func(sessionCtx *models.SessionContext) {
		sessionCtx.PushHistory(name)
	})
}

func (m *sessionContextManager) RemoveProjectReferences(ctx context.Context, sessionID, name string) error {
	return m.mutate(ctx, sessionID, func(sessionCtx *models.SessionContext) {
		if sessionCtx.ActiveProject == name {
			sessionCtx.ActiveProject = ""
		}
		sessionCtx.RemoveFromHistory(name)
	})
}

func (m *sessionContextManager) RenameReferences(ctx context.Context, sessionID, oldName, newName string) error {
	return m.mutate(ctx, sessionID, func(sessionCtx *models.SessionContext) {
		if sessionCtx.ActiveProject == oldName {
			sessionCtx.ActiveProject = newName
		}
		if history := sessionCtx.ProjectHistory; len(history) > 0 {
			replaced := false
			for i, h := range history {
				if h == oldName {
					history[i] = newName
					replaced = true
				}
			}
			if replaced {
				// Re-push to dedup in case newName was already present.
				sessionCtx.RemoveFromHistory(newName)
				sessionCtx.PushHistory(newName)
			}
		}
	})
}

// mutate performs a read-modify-write against the durable store with a rolling
// TTL refresh. When the store write fails, the mutation is applied to the
// cached copy instead so in-session behavior stays correct; durability is lost
// until the store recovers.
func (m *sessionContextManager) mutate(ctx context.Context, sessionID string, apply func(*models.SessionContext)) error {
	sessionCtx, err := m.GetContext(ctx, sessionID)
	if err != nil {
		return err
	}

	apply(sessionCtx)
	sessionCtx.LastUpdated = time.Now().UTC()

	if err := m.store.Put(ctx, sessionCtx); err != nil {
		m.logger.Warn("Session store write failed, applying mutation to cache only",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
	m.put(sessionID, sessionCtx)
	return nil
}

func (m *sessionContextManager) cachedFresh(sessionID string) *models.SessionContext {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.cache[sessionID]
	if !ok || time.Since(entry.cachedAt) >= sessionCacheFreshness {
		return nil
	}
	return entry.sessionCtx
}

func (m *sessionContextManager) cachedAny(sessionID string) *models.SessionContext {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if entry, ok := m.cache[sessionID]; ok {
		return entry.sessionCtx
	}
	return nil
}

func (m *sessionContextManager) put(sessionID string, sessionCtx *models.SessionContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[sessionID] = &cachedSession{
		sessionCtx: sessionCtx.Clone(),
		cachedAt:   time.Now(),
	}
}
