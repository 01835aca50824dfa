package review

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// pointKey identifies one (section, schedule) coordinate.
type pointKey struct {
	sectionID  uuid.UUID
	scheduleID uuid.UUID
}

type cacheEntry struct {
	snapshot *PointSnapshot
	expires  time.Time
}

// snapshotCache debounces repeated snapshot derivations for the same
// coordinate within a short TTL. Status only moves forward with the clock or
// through explicit transitions, and transitions invalidate their entry, so a
// briefly stale non-terminal snapshot is acceptable.
type snapshotCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[pointKey]cacheEntry
}

// newSnapshotCache creates a cache with the given TTL. A non-positive TTL
// disables caching entirely.
func newSnapshotCache(ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		ttl:     ttl,
		entries: make(map[pointKey]cacheEntry),
	}
}

func (c *snapshotCache) get(key pointKey, now time.Time) (*PointSnapshot, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.snapshot, true
}

func (c *snapshotCache) put(key pointKey, snapshot *PointSnapshot, now time.Time) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		snapshot: snapshot,
		expires:  now.Add(c.ttl),
	}
}

func (c *snapshotCache) invalidate(key pointKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
