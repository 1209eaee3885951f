package conversation

import (
	"context"
	"sync"
)

// MemoryStore is the default in-process state store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Get(_ context.Context, senderID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[senderID], nil
}

func (m *MemoryStore) Put(_ context.Context, senderID string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[senderID] = st
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, senderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, senderID)
	return nil
}
