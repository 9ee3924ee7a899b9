package lru

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	_, ok := c.Get("a") // a becomes most recent
	require.True(t, ok)

	c.Put("c", 3)

	_, ok = c.Peek("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Peek("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestCache_OnEvictAndRemove(t *testing.T) {
	c := New[string, int](1)
	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Remove("b")
	c.Remove("missing")

	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Update(t *testing.T) {
	c := New[string, int](4)

	got := c.Update("k", func(old int, ok bool) (int, bool) {
		assert.False(t, ok)
		return old + 10, true
	})
	assert.Equal(t, 10, got)

	got = c.Update("k", func(old int, ok bool) (int, bool) {
		assert.True(t, ok)
		return 99, false
	})
	assert.Equal(t, 10, got, "value must be unchanged when keep is false")
}

func TestCache_CapacityNormalised(t *testing.T) {
	c := New[int, int](0)
	assert.Equal(t, 1, c.Cap())
	c.Put(1, 1)
	c.Put(2, 2)
	assert.Equal(t, 1, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
