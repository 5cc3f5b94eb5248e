// Package ratelimit holds the in-process guards protecting the eligibility
// endpoint: a fixed-window request limiter keyed by client address and an
// expiring block cache keyed by dni. Both are process-local; a multi-instance
// deployment would swap the interfaces for a shared backing store without
// touching call sites.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of one limiter check. ResetAt is only meaningful
// when Allowed is false.
type Decision struct {
	Allowed bool
	ResetAt time.Time
}

type Limiter interface {
	Allow(key string) Decision
}

type BlockCache interface {
	Blocked(key string) bool
	Block(key string, d time.Duration)
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// WindowLimiter counts requests per key in a fixed window. Expired windows
// are purged lazily on each call, so the map only holds keys seen within the
// current window.
type WindowLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	entries map[string]*windowEntry
}

func NewWindowLimiter(max int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		max:     max,
		window:  window,
		now:     time.Now,
		entries: make(map[string]*windowEntry),
	}
}

func (l *WindowLimiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.now()
	for cachedKey, entry := range l.entries {
		if current.After(entry.resetAt) {
			delete(l.entries, cachedKey)
		}
	}

	entry, exists := l.entries[key]
	if !exists || current.After(entry.resetAt) {
		l.entries[key] = &windowEntry{count: 1, resetAt: current.Add(l.window)}
		return Decision{Allowed: true}
	}

	if entry.count >= l.max {
		return Decision{Allowed: false, ResetAt: entry.resetAt}
	}

	entry.count++
	return Decision{Allowed: true}
}

// SetClockForTests replaces the limiter's clock.
func (l *WindowLimiter) SetClockForTests(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// MemoryBlockCache is an expiring set of blocked keys.
type MemoryBlockCache struct {
	mu    sync.Mutex
	now   func() time.Time
	until map[string]time.Time
}

func NewMemoryBlockCache() *MemoryBlockCache {
	return &MemoryBlockCache{
		now:   time.Now,
		until: make(map[string]time.Time),
	}
}

func (c *MemoryBlockCache) Blocked(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, exists := c.until[key]
	if !exists {
		return false
	}
	if c.now().After(deadline) {
		delete(c.until, key)
		return false
	}
	return true
}

func (c *MemoryBlockCache) Block(key string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until[key] = c.now().Add(d)
}

// SetClockForTests replaces the cache's clock.
func (c *MemoryBlockCache) SetClockForTests(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
