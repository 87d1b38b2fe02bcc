package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/imagemath/pkg/cache"
	"github.com/sandrolain/imagemath/pkg/parser"
	"github.com/sandrolain/imagemath/pkg/types"
)

func compile(t *testing.T, src string) *types.Expression {
	t.Helper()
	expr, err := parser.Compile(src)
	require.NoError(t, err)
	return expr
}

func TestNew(t *testing.T) {
	c := cache.New(10)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 10, c.Capacity())
	assert.Equal(t, cache.DefaultCapacity, cache.New(0).Capacity())
}

func TestSetGet(t *testing.T) {
	c := cache.New(4)
	expr := compile(t, "a + b")
	c.Set("a + b", expr)

	got, ok := c.Get("a + b")
	require.True(t, ok)
	assert.Same(t, expr, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestLRUEviction(t *testing.T) {
	c := cache.New(3)
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, compile(t, k))
	}
	// Touch "a" so "b" becomes the oldest entry.
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("d", compile(t, "d"))

	assert.Equal(t, 3, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestInvalidateAndClear(t *testing.T) {
	c := cache.New(4)
	c.Set("x", compile(t, "x"))
	c.Set("y", compile(t, "y"))

	c.Invalidate("x")
	_, ok := c.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestSetOverwrites(t *testing.T) {
	c := cache.New(4)
	first, second := compile(t, "a"), compile(t, "b")
	c.Set("k", first)
	c.Set("k", second)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, c.Len())
}

func TestGetOrCompile(t *testing.T) {
	c := cache.New(4)
	calls := 0
	fn := func() (*types.Expression, error) {
		calls++
		return parser.Compile("x * 2")
	}

	e1, err := c.GetOrCompile("x * 2", fn)
	require.NoError(t, err)
	e2, err := c.GetOrCompile("x * 2", fn)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Same(t, e1, e2)
}

func TestGetOrCompile_ErrorsAreNotCached(t *testing.T) {
	c := cache.New(4)
	boom := errors.New("boom")
	_, err := c.GetOrCompile("bad", func() (*types.Expression, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	c := cache.New(8)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("x + %d", i%10)
			_, err := c.GetOrCompile(key, func() (*types.Expression, error) {
				return parser.Compile(key)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 8)
}
