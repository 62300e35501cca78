package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache("storefront").(*memoryCache)
	c.now = func() time.Time { return now }

	key := c.GenerateKey("cart", "abc")
	assert.Equal(t, "storefront:cart:abc", key)

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got, "missing key is not an error")

	require.NoError(t, c.Set(ctx, key, []byte(`{"1":2}`), time.Minute))
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"1":2}`, got)

	now = now.Add(2 * time.Minute)
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got, "entry expired")

	require.NoError(t, c.Set(ctx, key, "forever", 0))
	require.NoError(t, c.Delete(ctx, key))
	got, _ = c.Get(ctx, key)
	assert.Empty(t, got)
}
