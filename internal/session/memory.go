package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. They are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session)}
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[chatID], nil
}

func (m *MemoryStore) Put(_ context.Context, chatID int64, s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !s.Active() {
		delete(m.sessions, chatID)
		return nil
	}
	m.sessions[chatID] = s
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}
