package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "k", "v", 60))

		value, ok := c.Get(ctx, "k")
		require.True(t, ok)
		assert.Equal(t, "v", value)
	})

	t.Run("missing key", func(t *testing.T) {
		c := NewMemoryCache()
		_, ok := c.Get(ctx, "missing")
		assert.False(t, ok)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "k", "v", 60))
		require.NoError(t, c.Delete(ctx, "k"))

		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("concurrent access", func(t *testing.T) {
		c := NewMemoryCache()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("k-%d", i%5)
				_ = c.Set(ctx, key, i, 60)
				c.Get(ctx, key)
				if i%10 == 0 {
					_ = c.Delete(ctx, key)
				}
			}(i)
		}
		wg.Wait()
	})
}
