package feed

import (
	"context"
	"sync"
	"time"
)

const maxManagedViewers = 1024

// Feeds bundles one viewer's store and query layer.
type Feeds struct {
	Store   *Store
	Service *Service
}

type managerEntry struct {
	feeds    *Feeds
	lastUsed time.Time
}

// Manager hands out one Feeds per viewer key (the session cookie id). Stores
// are created on demand with preferences restored from the prefs store, and
// the least recently used viewer is evicted once the cap is hit.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*managerEntry
	prefs   PrefsStore
}

// NewManager creates a manager persisting preferences into prefs.
func NewManager(prefs PrefsStore) *Manager {
	return &Manager{
		entries: map[string]*managerEntry{},
		prefs:   prefs,
	}
}

// For returns the viewer's Feeds, creating it on first use.
func (m *Manager) For(ctx context.Context, viewerKey string) *Feeds {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[viewerKey]; ok {
		entry.lastUsed = time.Now()
		return entry.feeds
	}

	if len(m.entries) >= maxManagedViewers {
		m.evictOldestLocked()
	}

	store := NewStoreWithPrefs(ctx, m.prefs, viewerKey)
	feeds := &Feeds{Store: store, Service: NewService(store)}
	m.entries[viewerKey] = &managerEntry{feeds: feeds, lastUsed: time.Now()}
	return feeds
}

func (m *Manager) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.lastUsed.Before(oldest) {
			oldestKey = key
			oldest = entry.lastUsed
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
