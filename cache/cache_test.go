package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjutv/tubesource/models"
)

func stream(id string) *models.ResolvedStream {
	return &models.ResolvedStream{
		VideoID:     id,
		URL:         "https://x/" + id + ".m3u8",
		Title:       "T",
		ExtractedAt: time.Now(),
	}
}

func TestPutThenGet(t *testing.T) {
	c := New(time.Hour)

	s := stream("dQw4w9WgXcQ")
	c.Put("dQw4w9WgXcQ", s)

	got, ok := c.Get("dQw4w9WgXcQ")
	require.True(t, ok)
	assert.Equal(t, s, got)
}

func TestGetMissing(t *testing.T) {
	c := New(time.Hour)

	got, ok := c.Get("dQw4w9WgXcQ")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := New(time.Hour)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("dQw4w9WgXcQ", stream("dQw4w9WgXcQ"))

	// Just inside the TTL it still hits.
	c.now = func() time.Time { return now.Add(time.Hour) }
	_, ok := c.Get("dQw4w9WgXcQ")
	assert.True(t, ok)

	// Past the TTL it behaves as a miss.
	c.now = func() time.Time { return now.Add(time.Hour + time.Second) }
	_, ok = c.Get("dQw4w9WgXcQ")
	assert.False(t, ok)
}

func TestLastWriteWins(t *testing.T) {
	c := New(time.Hour)

	c.Put("dQw4w9WgXcQ", stream("old"))
	replacement := stream("dQw4w9WgXcQ")
	c.Put("dQw4w9WgXcQ", replacement)

	got, ok := c.Get("dQw4w9WgXcQ")
	require.True(t, ok)
	assert.Equal(t, replacement, got)
}

func TestClear(t *testing.T) {
	c := New(time.Hour)

	c.Put("a", stream("a"))
	c.Put("b", stream("b"))
	c.Put("c", stream("c"))

	assert.Equal(t, 3, c.Clear())

	for _, id := range []string{"a", "b", "c"} {
		_, ok := c.Get(id)
		assert.False(t, ok)
	}
	assert.Equal(t, 0, c.Clear())
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("video-%d", n%4)
			for j := 0; j < 100; j++ {
				c.Put(id, stream(id))
				if got, ok := c.Get(id); ok {
					// Replace-whole-entry: a reader must never observe a
					// half-written stream.
					assert.NotEmpty(t, got.URL)
				}
			}
		}(i)
	}
	wg.Wait()
}
