package runner

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryIndex is an in-process SessionIndex bounded by capacity and idle
// TTL. Evicted and expired sessions are passed to the eviction callback.
type MemoryIndex struct {
	cache *expirable.LRU[string, SessionInfo]
}

// NewMemoryIndex creates an index holding at most capacity sessions, each
// expiring ttl after its last Put. onEvict may be nil.
func NewMemoryIndex(capacity int, ttl time.Duration, onEvict func(SessionInfo)) *MemoryIndex {
	var cb expirable.EvictCallback[string, SessionInfo]
	if onEvict != nil {
		cb = func(_ string, info SessionInfo) { onEvict(info) }
	}
	return &MemoryIndex{cache: expirable.NewLRU[string, SessionInfo](capacity, cb, ttl)}
}

// Get implements SessionIndex.
func (m *MemoryIndex) Get(_ context.Context, id string) (SessionInfo, error) {
	info, ok := m.cache.Get(id)
	if !ok {
		return SessionInfo{}, ErrSessionNotFound
	}
	return info, nil
}

// Put implements SessionIndex. It refreshes the entry's TTL.
func (m *MemoryIndex) Put(_ context.Context, info SessionInfo) error {
	m.cache.Add(info.SessionID, info)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryIndex) Len() int {
	return m.cache.Len()
}
