package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheGetSet(t *testing.T) {
	c := NewTTLCache[string, int](time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCache[string, string](5 * time.Minute)
	c.now = func() time.Time { return now }

	c.Set("gold", "v1")
	c.SetWithTTL("short", "v2", time.Minute)

	now = now.Add(2 * time.Minute)
	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Expired)

	_, ok := c.Get("short")
	assert.False(t, ok)
	v, ok := c.Get("gold")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	now = now.Add(3 * time.Minute)
	_, ok = c.Get("gold")
	assert.False(t, ok, "entries expire once the TTL has fully elapsed")
	assert.Equal(t, 0, c.Stats().Size)
}

func TestTTLCacheNonPositiveTTL(t *testing.T) {
	c := NewTTLCache[int, int](time.Minute)
	c.SetWithTTL(1, 1, 0)
	c.SetWithTTL(2, 2, -time.Second)

	assert.Equal(t, 0, c.Stats().Size)
}

func TestTTLCacheStatsAndClear(t *testing.T) {
	c := NewTTLCache[string, int](30 * time.Second)
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("b")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRatio, 1e-9)
	assert.Equal(t, 30.0, stats.TTLSeconds)

	c.Clear()
	stats = c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, 0.0, stats.HitRatio)
}
