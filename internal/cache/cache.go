// Package cache provides a generic TTL+LRU cache and a cleanup manager for
// the dashboard read paths.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is what the dashboard handlers need from a cache: lookups, writes
// and prefix invalidation when an owner's entities change.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

type namedCleaner struct {
	name string
	Cleaner
}

// Manager sweeps expired entries out of registered caches on an interval.
type Manager struct {
	caches   []namedCleaner
	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache under a name used in sweep logs. Register before
// StartCleanup; the slice is not guarded after the sweeper starts.
func (m *Manager) Register(name string, cache Cleaner) {
	m.caches = append(m.caches, namedCleaner{name: name, Cleaner: cache})
}

// StartCleanup begins the periodic sweep.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.sweep(interval)
}

func (m *Manager) sweep(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range m.caches {
				if n := c.CleanExpired(); n > 0 {
					slog.Debug("Cache sweep removed expired entries",
						"cache", c.name, "entries_removed", n)
				}
			}
		case <-m.stop:
			return
		}
	}
}

// Stop halts the sweeper and waits for it to exit. Safe to call twice.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.started {
			<-m.done
		}
	})
}
