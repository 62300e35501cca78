package guestcart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ioproxxy/mosolarweb/internal/pkg/cache"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

func TestGuestCart(t *testing.T) {
	ctx := context.Background()
	carts := New(cache.NewMemoryCache("test"), 0)
	token := carts.NewToken()
	require.NotEmpty(t, token)

	c := carts.Cart(token)
	lines, err := c.Lines(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, c.Put(ctx, 1, 2))
	require.NoError(t, c.Put(ctx, 2, 1))
	require.NoError(t, c.Put(ctx, 1, 5))

	lines, err = carts.Cart(token).Lines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: 1, Quantity: 5}, {ProductID: 2, Quantity: 1}}, lines)

	found, err := c.Delete(ctx, 2)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = c.Delete(ctx, 2)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Clear(ctx))
	lines, err = c.Lines(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestGuestCartsAreIsolated(t *testing.T) {
	ctx := context.Background()
	carts := New(cache.NewMemoryCache("test"), 0)

	a, b := carts.Cart("a"), carts.Cart("b")
	require.NoError(t, a.Put(ctx, 7, 1))

	lines, err := b.Lines(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
