package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/store"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// TokenStore maps opaque bearer tokens to sessions.
type TokenStore interface {
	Create(ctx context.Context, sess store.Session) (string, error)
	Lookup(ctx context.Context, token string) (store.Session, error)
	Delete(ctx context.Context, token string) error
}

type memoryEntry struct {
	session store.Session
	expires time.Time
}

// MemoryTokenStore keeps tokens in process. Used when no Redis is configured.
type MemoryTokenStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryTokenStore(ttl time.Duration) *MemoryTokenStore {
	return &MemoryTokenStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryTokenStore) Create(_ context.Context, sess store.Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for t, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, t)
		}
	}

	token := uuid.NewString()
	m.entries[token] = memoryEntry{session: sess, expires: now.Add(m.ttl)}
	return token, nil
}

// Lookup refreshes the expiry of a live token.
func (m *MemoryTokenStore) Lookup(_ context.Context, token string) (store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[token]
	if !ok {
		return store.Session{}, ErrSessionNotFound
	}
	if m.now().After(entry.expires) {
		delete(m.entries, token)
		return store.Session{}, ErrSessionNotFound
	}

	entry.expires = m.now().Add(m.ttl)
	m.entries[token] = entry
	return entry.session, nil
}

func (m *MemoryTokenStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
	return nil
}
