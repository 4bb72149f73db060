package session

import (
	"context"
	"sync"
	"time"

	"github.com/mylankajourney/admin-console/internal/domain"
)

// Store persists sessions by token. Get returns domain.ErrNotFound for
// unknown or expired tokens.
type Store interface {
	Get(ctx context.Context, token string) (Session, error)
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// Sweeper is implemented by stores that do not evict expired sessions on
// their own. Redis expires keys itself and does not need it.
type Sweeper interface {
	Sweep(now time.Time) []string
}

type memoryEntry struct {
	session Session
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart and are not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Sweeper = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[token]
	if !ok {
		return Session{}, domain.ErrNotFound
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, token)
		return Session{}, domain.ErrNotFound
	}
	return e.session, nil
}

// Save stores s. A ttl of zero keeps it until deleted.
func (m *MemoryStore) Save(_ context.Context, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{session: s}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[s.Token] = e
	return nil
}

// Sweep removes every session expired at now and returns their tokens.
func (m *MemoryStore) Sweep(now time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []string
	for token, e := range m.entries {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(m.entries, token)
			expired = append(expired, token)
		}
	}
	return expired
}

// Len reports how many sessions are held, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
	return nil
}
