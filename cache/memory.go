// Package cache provides the two-tier cache that fronts network fetches:
// a bounded in-memory TTL cache over a filesystem cache that survives
// restarts and may be shared by concurrent processes.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the memory tier before LRU eviction kicks in.
const DefaultMaxEntries = 256

// Ensure Memory implements optnix.Cache at compile time (via TwoTier's
// embedding sites); the check lives in twotier.go alongside the others.

// Memory is a synchronized, bounded in-memory TTL cache with LRU eviction.
// Expired entries are dropped lazily on access, not by a background timer.
//
// Each entry carries the wall-clock store time plus a process-monotonic
// sequence number; an entry whose store time lies in the future (the system
// clock rolled back) is treated as expired rather than immortal.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	lru     *list.List // front = most recently used; values are keys
	max     int
	seq     uint64
	now     func() time.Time
}

type memEntry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
	seq      uint64
	elem     *list.Element
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithMaxEntries sets the entry bound. Defaults to DefaultMaxEntries.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		m.max = n
	}
}

// WithClock overrides the time source. Used by tests to exercise expiry
// without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates a new in-memory cache tier.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*memEntry),
		lru:     list.New(),
		max:     DefaultMaxEntries,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached value and true on a fresh hit. Expired entries are
// removed on the spot.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.expired(e) {
		m.remove(key, e)
		return nil, false
	}
	m.lru.MoveToFront(e.elem)
	return e.value, true
}

// GetStale returns the value even when its TTL has lapsed.
func (m *Memory) GetStale(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key for ttl, evicting the least recently used
// entries past the bound.
func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	if e, ok := m.entries[key]; ok {
		e.value = value
		e.storedAt = m.now()
		e.ttl = ttl
		e.seq = m.seq
		m.lru.MoveToFront(e.elem)
		return nil
	}

	e := &memEntry{
		value:    value,
		storedAt: m.now(),
		ttl:      ttl,
		seq:      m.seq,
	}
	e.elem = m.lru.PushFront(key)
	m.entries[key] = e

	for m.max > 0 && len(m.entries) > m.max {
		back := m.lru.Back()
		if back == nil {
			break
		}
		evictKey := back.Value.(string)
		m.remove(evictKey, m.entries[evictKey])
	}
	return nil
}

// Invalidate removes a single entry.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		m.remove(key, e)
	}
	return nil
}

// Clear removes all entries.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*memEntry)
	m.lru.Init()
	return nil
}

// Len returns the number of live entries, expired ones included until their
// lazy removal.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) expired(e *memEntry) bool {
	now := m.now()
	if e.storedAt.After(now) {
		// Clock rolled back past the store time; the entry's age is
		// unknowable, so treat it as expired.
		return true
	}
	return now.Sub(e.storedAt) >= e.ttl
}

func (m *Memory) remove(key string, e *memEntry) {
	delete(m.entries, key)
	if e != nil && e.elem != nil {
		m.lru.Remove(e.elem)
	}
}
