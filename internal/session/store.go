package session

import (
	"context"
	"sync"
	"time"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// Store persists sessions between requests, keyed by client id.
// Implementations return copies so callers never share state.
type Store interface {
	Load(ctx context.Context, clientID string) (*model.Session, bool, error)
	Save(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, clientID string) error
}

// pruneEvery controls how many saves pass between sweeps of expired entries.
const pruneEvery = 256

type entry struct {
	session   *model.Session
	savedAt   time.Time
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Entries expire ttl after their last
// save; expired entries are dropped lazily. With a entry limit set, saving a
// new client into a full store first drops expired entries and then evicts
// the least recently saved session.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	writes     int
	evictions  int
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMaxEntries caps the number of sessions held. n <= 0 means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(m *MemoryStore) { m.maxEntries = n }
}

// NewMemoryStore returns an empty MemoryStore. A non-positive ttl disables
// expiry.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns a copy of the session for clientID.
func (m *MemoryStore) Load(ctx context.Context, clientID string) (*model.Session, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[clientID]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if m.expired(e) {
		m.mu.Lock()
		if cur, ok := m.entries[clientID]; ok && m.expired(cur) {
			delete(m.entries, clientID)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.session.Clone(), true, nil
}

// Save stores a copy of s, replacing any previous state for its client.
func (m *MemoryStore) Save(ctx context.Context, s *model.Session) error {
	now := m.now()
	e := entry{session: s.Clone(), savedAt: now}
	if m.ttl > 0 {
		e.expiresAt = now.Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[s.ClientID]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.pruneLocked()
		for len(m.entries) >= m.maxEntries {
			m.evictOldestLocked()
		}
	}
	m.entries[s.ClientID] = e
	m.writes++
	if m.writes%pruneEvery == 0 {
		m.pruneLocked()
	}
	return nil
}

// Delete removes the session for clientID. Deleting an unknown client is not
// an error.
func (m *MemoryStore) Delete(ctx context.Context, clientID string) error {
	m.mu.Lock()
	delete(m.entries, clientID)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, including expired ones not yet
// pruned.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Evictions returns how many live sessions were dropped to respect the
// entry limit.
func (m *MemoryStore) Evictions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.evictions
}

func (m *MemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

func (m *MemoryStore) pruneLocked() {
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
		}
	}
}

func (m *MemoryStore) evictOldestLocked() {
	var (
		oldestID string
		oldestAt time.Time
		found    bool
	)
	for id, e := range m.entries {
		if !found || e.savedAt.Before(oldestAt) {
			oldestID, oldestAt, found = id, e.savedAt, true
		}
	}
	if found {
		delete(m.entries, oldestID)
		m.evictions++
	}
}
