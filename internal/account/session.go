package account

import (
	"database/sql"
	"sync"
)

// Keys under which the signed-in user and the current account id are persisted
const (
	UserKey           = "whatsapp_agent_user"
	CurrentAccountKey = "whatsapp_current_account"
)

// SessionStore persists small string values across restarts.
// GetState returns sql.ErrNoRows for a missing key.
type SessionStore interface {
	GetState(key string) (string, error)
	SetState(key, value string) error
	DeleteState(key string) error
}

// MemorySession is a SessionStore kept in memory
type MemorySession struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySession creates an empty in-memory session store
func NewMemorySession() *MemorySession {
	return &MemorySession{values: make(map[string]string)}
}

func (m *MemorySession) GetState(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", sql.ErrNoRows
	}
	return v, nil
}

func (m *MemorySession) SetState(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemorySession) DeleteState(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
