// Package locks holds the short-TTL advisory slot locks. The locks are
// best-effort only: they give concurrent booking flows a fast pre-commit
// conflict signal, while the booking store's unique index stays the
// authoritative double-booking guard.
package locks

import (
	"sync"
	"time"
)

type lockEntry struct {
	token     uint64
	expiresAt time.Time
}

// Manager is an in-memory advisory lock registry keyed by slot identity.
// Expired entries are treated as absent on every read and removed by a single
// periodic sweep goroutine; there are no per-entry timers. Every acquisition
// gets a unique token, so a flow that outlived its TTL cannot release a lock
// someone else holds by now.
type Manager struct {
	mu     sync.Mutex
	locks  map[string]lockEntry
	next   uint64
	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

func NewManager(sweepInterval time.Duration, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	m := &Manager{
		locks:  make(map[string]lockEntry),
		now:    now,
		stopCh: make(chan struct{}),
	}
	go m.sweep(sweepInterval)
	return m
}

// Acquire claims the slot for ttl. It fails if an unexpired lock already
// exists for the same identity. The returned token must be passed back to
// Release.
func (m *Manager) Acquire(slotKey string, ttl time.Duration) (uint64, bool) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, held := m.locks[slotKey]; held && entry.expiresAt.After(now) {
		return 0, false
	}
	m.next++
	m.locks[slotKey] = lockEntry{token: m.next, expiresAt: now.Add(ttl)}
	return m.next, true
}

// Release drops the lock only when token still owns it. A stale token means
// the entry expired and another flow re-acquired the slot; their lock stays.
func (m *Manager) Release(slotKey string, token uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, held := m.locks[slotKey]; held && entry.token == token {
		delete(m.locks, slotKey)
	}
}

// IsLocked reports whether an unexpired lock exists. An expired lock is
// equivalent to no lock and is dropped on the spot.
func (m *Manager) IsLocked(slotKey string) bool {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, held := m.locks[slotKey]
	if !held {
		return false
	}
	if !entry.expiresAt.After(now) {
		delete(m.locks, slotKey)
		return false
	}
	return true
}

func (m *Manager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := m.now()
			m.mu.Lock()
			for key, entry := range m.locks {
				if !entry.expiresAt.After(now) {
					delete(m.locks, key)
				}
			}
			m.mu.Unlock()
		case <-m.stopCh:
			return
		}
	}
}

// Stop terminates the sweep goroutine.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stopCh) })
}
