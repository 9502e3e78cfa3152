package metadata

import (
	"sync"
	"time"
)

// dupResult is the memoized outcome of a duplicate scan for one normalized
// title.
type dupResult struct {
	isDuplicate bool
	existingID  string
}

// memoCache memoizes duplicate-scan outcomes for a bounded time window so
// repeated ingests of the same list avoid rescanning the whole table. It is
// a performance convenience only; correctness never depends on it.
type memoCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	nowFn   func() time.Time
	entries map[string]memoEntry
}

type memoEntry struct {
	result   dupResult
	storedAt time.Time
}

func newMemoCache(ttl time.Duration) *memoCache {
	return &memoCache{
		ttl:     ttl,
		nowFn:   time.Now,
		entries: make(map[string]memoEntry),
	}
}

func (c *memoCache) get(key string) (dupResult, bool) {
	if c == nil || key == "" {
		return dupResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return dupResult{}, false
	}
	if c.nowFn().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return dupResult{}, false
	}
	return entry.result, true
}

func (c *memoCache) set(key string, result dupResult) {
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoEntry{result: result, storedAt: c.nowFn()}
}

// invalidate drops every memoized entry. Called after writes so a freshly
// saved title is seen by the next scan.
func (c *memoCache) invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoEntry)
}
