// Package store persists sessions and user memories as keyed maps. The
// layout is opaque to the rest of the engine; it only needs round-trip
// save/load so a restart (or a director's save command) never loses a
// conversation.
package store

import (
	"sync"

	"github.com/JadeGeek/Awada/pkg/memory"
	"github.com/JadeGeek/Awada/pkg/session"
)

type Store interface {
	SaveSession(s *session.Session) error
	LoadSessions() (map[string]*session.Session, error)
	SaveUserMemory(userID string, mem memory.UserMemory) error
	// LoadUserMemory returns (nil, nil) when the user has no saved memory.
	LoadUserMemory(userID string) (memory.UserMemory, error)
}

// MemStore keeps everything in process memory. Used in tests and as the
// fallback when no database is configured.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	memories map[string]memory.UserMemory
}

func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[string]*session.Session),
		memories: make(map[string]memory.UserMemory),
	}
}

func (m *MemStore) SaveSession(s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.TurnBuffer = append([]string(nil), s.TurnBuffer...)
	m.sessions[s.UserID] = &cp
	return nil
}

func (m *MemStore) LoadSessions() (map[string]*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*session.Session, len(m.sessions))
	for id, s := range m.sessions {
		cp := *s
		cp.TurnBuffer = append([]string(nil), s.TurnBuffer...)
		out[id] = &cp
	}
	return out, nil
}

func (m *MemStore) SaveUserMemory(userID string, mem memory.UserMemory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(memory.UserMemory, len(mem))
	for entity, records := range mem {
		cp[entity] = append([]memory.Record(nil), records...)
	}
	m.memories[userID] = cp
	return nil
}

func (m *MemStore) LoadUserMemory(userID string) (memory.UserMemory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.memories[userID]
	if !ok {
		return nil, nil
	}
	cp := make(memory.UserMemory, len(mem))
	for entity, records := range mem {
		cp[entity] = append([]memory.Record(nil), records...)
	}
	return cp, nil
}
