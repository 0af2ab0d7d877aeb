package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	fields    map[Field]string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. It follows the same
// field-level write semantics as RedisStore.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var c Context
	e, ok := m.sessions[sessionID]
	if !ok {
		return c, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.sessions, sessionID)
		return c, nil
	}
	for f, raw := range e.fields {
		c.decode(f, raw)
	}
	return c, nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, c Context, fields ...Field) error {
	if sessionID == "" {
		return fmt.Errorf("session: missing session_id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok || !m.now().Before(e.expiresAt) {
		e = &memoryEntry{fields: make(map[Field]string)}
		m.sessions[sessionID] = e
	}
	for _, f := range fields {
		if v, ok := c.encode(f); ok {
			e.fields[f] = v
		} else {
			delete(e.fields, f)
		}
	}
	e.expiresAt = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}
