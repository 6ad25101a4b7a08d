// Package cache is the server-side result cache backing extraction.
// Entries are immutable once constructed and always replaced wholesale, so
// readers can never observe a partial write.
package cache

import (
	"sync"
	"time"

	"github.com/jjutv/tubesource/models"
)

type entry struct {
	stream     *models.ResolvedStream
	insertedAt time.Time
}

type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry

	// Injectable clock for expiry tests.
	now func() time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached stream for a video id. An expired entry behaves as
// a miss; the stale value is left for the next Put to overwrite.
func (c *Cache) Get(videoID string) (*models.ResolvedStream, bool) {
	c.mu.RLock()
	e, ok := c.entries[videoID]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.insertedAt) > c.ttl {
		return nil, false
	}
	return e.stream, true
}

// Put stores a stream under its video id, last write wins.
func (c *Cache) Put(videoID string, stream *models.ResolvedStream) {
	c.mu.Lock()
	c.entries[videoID] = entry{stream: stream, insertedAt: c.now()}
	c.mu.Unlock()
}

// Clear drops all entries and returns how many were present.
func (c *Cache) Clear() int {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return n
}

// Len reports the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
