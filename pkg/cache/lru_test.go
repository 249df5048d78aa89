package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cache"
)

func TestLRUBasicOperations(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now the coldest entry and gets evicted.
	c.Set("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)

	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestLRUTTLExpiry(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, string](4)
	c.SetTTL("short", "gone soon", 10*time.Millisecond)
	c.SetTTL("long", "stays", time.Hour)

	v, ok := c.Get("short")
	require.True(t, ok)
	assert.Equal(t, "gone soon", v)

	time.Sleep(20 * time.Millisecond)

	_, ok = c.Get("short")
	assert.False(t, ok)
	_, ok = c.Get("long")
	assert.True(t, ok)
}

func TestLRUReplaceResetsTTL(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](4)
	c.SetTTL("k", 1, 10*time.Millisecond)
	c.SetTTL("k", 2, time.Hour)

	time.Sleep(20 * time.Millisecond)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestLRUEvictCallback(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](1)
	evicted := make(map[string]int)
	c.OnEvict(func(k string, v int) { evicted[k] = v })

	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, map[string]int{"a": 1}, evicted)

	c.Clear()
	assert.Equal(t, 2, evicted["b"])
	assert.Equal(t, 0, c.Len())
}

func TestLRUDelete(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](2)
	c.Set("a", 1)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRUInvalidCapacityPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { cache.NewLRU[string, int](0) })
}
