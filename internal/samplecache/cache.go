// Package samplecache holds the last-seen counter samples used to derive
// per-second rates. Each key keeps only its most recent value.
package samplecache

import (
	"sync"
	"time"
)

// DefaultTTL is how long a rate baseline survives without being refreshed.
const DefaultTTL = 24 * time.Hour

// DefaultMaxEntries bounds the number of keys before pruning kicks in.
const DefaultMaxEntries = 500

// Clock supplies the current time. testutil.Clock satisfies it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Cache is the read/write contract the rate estimator depends on.
type Cache interface {
	// Get returns the most recent value stored under key. The second return
	// value is false when the key was never written or has expired.
	Get(key string) (any, bool)
	// Set stores value under key with the default TTL.
	Set(key string, value any)
	// SetWithTTL stores value under key. A zero ttl never expires.
	SetWithTTL(key string, value any, ttl time.Duration)
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type entry struct {
	value   any
	expires time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Memory is an in-process Cache safe for concurrent use.
type Memory struct {
	mu         sync.Mutex
	items      map[string]entry
	clock      Clock
	defaultTTL time.Duration
	maxEntries int
	stats      Stats
}

// Compile-time guard.
var _ Cache = (*Memory)(nil)

// Option configures a Memory cache.
type Option func(*Memory)

// WithClock overrides the time source used for expiry.
func WithClock(c Clock) Option {
	return func(m *Memory) { m.clock = c }
}

// WithDefaultTTL sets the TTL applied by Set. Non-positive values disable
// expiry for Set.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(m *Memory) { m.defaultTTL = ttl }
}

// WithMaxEntries caps the number of stored keys. Zero or negative means
// unbounded.
func WithMaxEntries(n int) Option {
	return func(m *Memory) { m.maxEntries = n }
}

// NewMemory returns an empty cache.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		items:      make(map[string]entry),
		clock:      SystemClock(),
		defaultTTL: DefaultTTL,
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get implements Cache.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		m.stats.Misses++
		return nil, false
	}
	if e.expired(m.clock.Now()) {
		delete(m.items, key)
		m.stats.Misses++
		m.stats.Evictions++
		return nil, false
	}
	m.stats.Hits++
	return e.value, true
}

// Set implements Cache.
func (m *Memory) Set(key string, value any) {
	ttl := m.defaultTTL
	if ttl < 0 {
		ttl = 0
	}
	m.SetWithTTL(key, value, ttl)
}

// SetWithTTL implements Cache.
func (m *Memory) SetWithTTL(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e := entry{value: value}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}

	if _, exists := m.items[key]; !exists && m.maxEntries > 0 && len(m.items) >= m.maxEntries {
		m.prune(now)
	}
	m.items[key] = e
}

// prune drops expired entries and, if the cache is still full, the entry
// closest to expiry. Caller holds mu.
func (m *Memory) prune(now time.Time) {
	for k, e := range m.items {
		if e.expired(now) {
			delete(m.items, k)
			m.stats.Evictions++
		}
	}
	if len(m.items) < m.maxEntries {
		return
	}

	var (
		victim string
		soon   time.Time
		found  bool
	)
	for k, e := range m.items {
		if e.expires.IsZero() {
			continue
		}
		if !found || e.expires.Before(soon) {
			victim, soon, found = k, e.expires, true
		}
	}
	if !found {
		// Every entry is permanent; evict an arbitrary one.
		for k := range m.items {
			victim, found = k, true
			break
		}
	}
	if found {
		delete(m.items, victim)
		m.stats.Evictions++
	}
}

// Len reports the number of stored keys, including not-yet-pruned expired
// ones.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Stats returns a copy of the hit/miss/eviction counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
