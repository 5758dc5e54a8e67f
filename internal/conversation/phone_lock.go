package conversation

import (
	"context"
	"log"
	"sync"
)

// PhoneLocks serialises message turns per phone number.
// Entries are dropped once no goroutine holds or waits for them.
type PhoneLocks struct {
	mu    sync.Mutex
	locks map[string]*phoneLock
}

type phoneLock struct {
	sem  chan struct{}
	refs int
}

// NewPhoneLocks creates a new PhoneLocks
func NewPhoneLocks() *PhoneLocks {
	return &PhoneLocks{
		locks: make(map[string]*phoneLock),
	}
}

// acquire returns the lock for a phone number, creating one if needed
func (m *PhoneLocks) acquire(phone string) *phoneLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.locks[phone]
	if l == nil {
		l = &phoneLock{sem: make(chan struct{}, 1)}
		m.locks[phone] = l
	}
	l.refs++
	return l
}

func (m *PhoneLocks) release(phone string, l *phoneLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(m.locks, phone)
	}
}

// Lock acquires the lock for a phone number, giving up when ctx is done
func (m *PhoneLocks) Lock(ctx context.Context, phone string) error {
	l := m.acquire(phone)

	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.release(phone, l)
		log.Printf("[Directory] Context cancelled while waiting for phone lock phone=%s", phone)
		return ctx.Err()
	}
}

// Unlock releases the lock for a phone number
func (m *PhoneLocks) Unlock(phone string) {
	m.mu.Lock()
	l := m.locks[phone]
	m.mu.Unlock()

	if l == nil {
		return
	}
	<-l.sem
	m.release(phone, l)
}

// Len returns the number of phone numbers currently locked or waited on
func (m *PhoneLocks) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
