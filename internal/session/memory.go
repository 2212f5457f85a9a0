package session

import (
	"context"
	"sync"
	"time"

	"github.com/health-dashboard/backend/internal/metrics"
)

// sweepInterval is how often expired sessions are dropped in the background.
const sweepInterval = time.Minute

type memoryEntry struct {
	session Session
	expires time.Time
}

// MemoryStore keeps sessions in process memory. It is used when Redis is
// disabled, which is the single-instance deployment.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore starts a background sweep of expired sessions; call Stop to
// end it.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go m.cleanupLoop(sweepInterval)

	return m
}

func (m *MemoryStore) Save(_ context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[s.ID] = memoryEntry{session: *s, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.now().After(e.expires) {
		m.expire(id)
		return nil, ErrNotFound
	}

	s := e.session
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return false, nil
	}
	if m.now().After(e.expires) {
		m.expire(id)
		return false, nil
	}
	delete(m.entries, id)
	return true, nil
}

func (m *MemoryStore) Touch(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return ErrNotFound
	}
	if m.now().After(e.expires) {
		m.expire(id)
		return ErrNotFound
	}
	e.expires = m.now().Add(ttl)
	m.entries[id] = e
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stop ends the background sweep. It is safe to call more than once.
func (m *MemoryStore) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *MemoryStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep drops every expired session and returns how many it removed.
func (m *MemoryStore) sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if now.After(e.expires) {
			m.expire(id)
			removed++
		}
	}
	return removed
}

// expire removes id and counts it as an expiry. The caller holds mu.
func (m *MemoryStore) expire(id string) {
	delete(m.entries, id)
	metrics.SessionsEnded.WithLabelValues("expired").Inc()
}
