package cache

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is how often the background sweeper drops expired entries.
const sweepInterval = time.Minute

// Memory is an in-process TTL store. Expired entries are invisible to Get
// immediately; a background sweeper reclaims their memory.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration

	done chan struct{}
	once sync.Once
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemory creates an in-process store. defaultTTL applies when Set is
// called with ttl == 0; a zero defaultTTL falls back to five minutes.
func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	m := &Memory{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		done:       make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Get returns the value for key, or ErrMiss when absent or expired.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return "", ErrMiss
	}
	return entry.value, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Delete removes keys.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}

// Ping always succeeds for the in-process store.
func (m *Memory) Ping(context.Context) error { return nil }

// Close stops the sweeper. The store stays usable; only reclamation stops.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// Len returns the number of stored entries, expired ones included until the
// next sweep.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, entry := range m.entries {
				if now.After(entry.expiresAt) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
