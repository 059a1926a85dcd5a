package application

import (
	"sync"
	"time"

	"github.com/example/cleanops-scheduler/internal/availability"
)

// ProjectionCache stores recently computed day projections so calendar
// renders do not refetch worker records while they remain unchanged. Worker
// calendar mutations invalidate the affected worker.
type ProjectionCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[projectionKey]projectionCacheEntry

	// Bumped by invalidations so projections computed from records read
	// before a mutation are not stored after it.
	epoch       uint64
	generations map[string]uint64
}

type projectionKey struct {
	workerID string
	date     string
}

type projectionCacheEntry struct {
	day       availability.DayAvailability
	expiresAt time.Time
}

// NewProjectionCache constructs a cache. Non-positive ttl or maxEntries fall
// back to 30 seconds and 1024 entries.
func NewProjectionCache(ttl time.Duration, maxEntries int, now func() time.Time) *ProjectionCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &ProjectionCache{
		now:         now,
		ttl:         ttl,
		maxEntries:  maxEntries,
		entries:     make(map[projectionKey]projectionCacheEntry),
		generations: make(map[string]uint64),
	}
}

func newProjectionKey(workerID string, date time.Time) projectionKey {
	return projectionKey{workerID: workerID, date: date.Format(time.DateOnly)}
}

// Get returns a copy of the cached projection for the worker's date.
func (c *ProjectionCache) Get(workerID string, date time.Time) (availability.DayAvailability, bool) {
	if c == nil {
		return availability.DayAvailability{}, false
	}
	key := newProjectionKey(workerID, date)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return availability.DayAvailability{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return availability.DayAvailability{}, false
	}
	return cloneDay(entry.day), true
}

// Generation returns the worker's invalidation generation. Read it before
// loading records and pass it to StoreIfCurrent.
func (c *ProjectionCache) Generation(workerID string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generationLocked(workerID)
}

// Store caches a copy of day for the worker.
func (c *ProjectionCache) Store(workerID string, day availability.DayAvailability) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(workerID, day)
}

// StoreIfCurrent caches day only when the worker has not been invalidated
// since generation was read. It reports whether the projection was stored.
func (c *ProjectionCache) StoreIfCurrent(workerID string, generation uint64, day availability.DayAvailability) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generationLocked(workerID) != generation {
		return false
	}
	c.storeLocked(workerID, day)
	return true
}

func (c *ProjectionCache) generationLocked(workerID string) uint64 {
	return c.epoch + c.generations[workerID]
}

func (c *ProjectionCache) storeLocked(workerID string, day availability.DayAvailability) {
	cloned := cloneDay(day)
	expiry := c.now().Add(c.ttl)

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[newProjectionKey(workerID, day.Date)] = projectionCacheEntry{day: cloned, expiresAt: expiry}
}

// InvalidateWorker drops every cached projection of the worker.
func (c *ProjectionCache) InvalidateWorker(workerID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[workerID]++
	for key := range c.entries {
		if key.workerID == workerID {
			delete(c.entries, key)
		}
	}
}

// Invalidate drops every cached projection.
func (c *ProjectionCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.epoch++
	c.entries = make(map[projectionKey]projectionCacheEntry)
	c.mu.Unlock()
}

func (c *ProjectionCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *ProjectionCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneDay(day availability.DayAvailability) availability.DayAvailability {
	if day.HourlyBlocks == nil {
		return day
	}
	blocks := make([]availability.Block, len(day.HourlyBlocks))
	copy(blocks, day.HourlyBlocks)
	day.HourlyBlocks = blocks
	return day
}
