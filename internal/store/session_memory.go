package store

import (
	"sync"

	"privacyweave/internal/util"
)

// MemorySessionStore keeps sessions in-process. Pairs with MemoryStore.
type MemorySessionStore struct {
	mu   sync.RWMutex
	sess map[string]int
}

// NewMemorySessionStore initializes an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sess: make(map[string]int)}
}

// NewSession creates a session token for a user.
func (m *MemorySessionStore) NewSession(userID int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := util.NewID()
	m.sess[token] = userID
	return token, nil
}

// GetUserIDByToken resolves a token to a user ID.
func (m *MemorySessionStore) GetUserIDByToken(token string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.sess[token]
	return id, ok, nil
}

// DeleteSession removes a token mapping.
func (m *MemorySessionStore) DeleteSession(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sess, token)
	return nil
}
