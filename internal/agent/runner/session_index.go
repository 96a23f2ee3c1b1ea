package runner

import (
	"context"
	"errors"
	"time"

	"github.com/moolen/agentdesk/internal/logging"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionInfo is the metadata kept per conversation.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	Agent        string    `json:"agent"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Turns        int       `json:"turns"`
}

// SessionIndex stores SessionInfo by session id.
type SessionIndex interface {
	// Get returns ErrSessionNotFound when id is unknown.
	Get(ctx context.Context, id string) (SessionInfo, error)
	Put(ctx context.Context, info SessionInfo) error
}

// TieredIndex keeps sessions in a local MemoryIndex, which owns ADK session
// eviction, and mirrors them to an optional shared index so other replicas
// can answer lookups.
type TieredIndex struct {
	Local  *MemoryIndex
	Shared SessionIndex
	logger *logging.Logger
}

// NewTieredIndex combines local and shared. shared may be nil.
func NewTieredIndex(local *MemoryIndex, shared SessionIndex) *TieredIndex {
	return &TieredIndex{
		Local:  local,
		Shared: shared,
		logger: logging.GetLogger("agent.sessions"),
	}
}

// Get checks the local index first.
func (t *TieredIndex) Get(ctx context.Context, id string) (SessionInfo, error) {
	info, err := t.Local.Get(ctx, id)
	if err == nil || t.Shared == nil {
		return info, err
	}
	return t.Shared.Get(ctx, id)
}

// Put writes both tiers. A failing shared write is logged, not returned.
func (t *TieredIndex) Put(ctx context.Context, info SessionInfo) error {
	if err := t.Local.Put(ctx, info); err != nil {
		return err
	}
	if t.Shared != nil {
		if err := t.Shared.Put(ctx, info); err != nil {
			t.logger.Warn("Failed to mirror session %s: %v", info.SessionID, err)
		}
	}
	return nil
}

// Len returns the number of locally tracked sessions.
func (t *TieredIndex) Len() int {
	return t.Local.Len()
}
