package models

import "time"

// MaxProjectHistory caps the per-session recent-project list.
const MaxProjectHistory = 10

// SessionContext is the per-conversation state tracked for a chat session:
// the project currently in focus plus a most-recent-first history of projects
// the session has touched. It lives in Redis with a rolling 7-day TTL and is
// never explicitly deleted; expiry is the only destruction path.
type SessionContext struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id,omitempty"`
	ActiveProject  string    `json:"active_project,omitempty"`
	ProjectHistory []string  `json:"project_history"`
	LastUpdated    time.Time `json:"last_updated"`
}

// PushHistory records name as the most recent project, removing any earlier
// occurrence and capping the list at MaxProjectHistory entries.
func (s *SessionContext) PushHistory(name string) {
	history := make([]string, 0, len(s.ProjectHistory)+1)
	history = append(history, name)
	for _, h := range s.ProjectHistory {
		if h != name {
			history = append(history, h)
		}
	}
	if len(history) > MaxProjectHistory {
		history = history[:MaxProjectHistory]
	}
	s.ProjectHistory = history
}

// RemoveFromHistory drops every occurrence of name.
func (s *SessionContext) RemoveFromHistory(name string) {
	history := s.ProjectHistory[:0]
	for _, h := range s.ProjectHistory {
		if h != name {
			history = append(history, h)
		}
	}
	s.ProjectHistory = history
}

// Clone returns a deep copy, used by the session cache so callers never share
// the cached instance.
func (s *SessionContext) Clone() *SessionContext {
	clone := *s
	clone.ProjectHistory = append([]string(nil), s.ProjectHistory...)
	return &clone
}
