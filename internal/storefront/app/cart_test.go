package app_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

func TestCartAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carts := f.carts()
	id := carts.Identity(f.customer, "")

	line, err := carts.Add(ctx, f.customer, id, f.panel.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	line, err = carts.Add(ctx, f.customer, id, f.panel.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity, "adding the same product sums quantities")

	testCases := []struct {
		name      string
		principal domain.Principal
		id        domain.Identity
		productID uint
		qty       int
		target    error
	}{
		{name: "above stock", principal: f.customer, id: id, productID: f.panel.ID, qty: 11, target: domain.ErrOutOfStock},
		{name: "sold out product", principal: f.customer, id: id, productID: f.battery.ID, qty: 1, target: domain.ErrOutOfStock},
		{name: "zero quantity", principal: f.customer, id: id, productID: f.panel.ID, qty: 0, target: domain.ErrValidation},
		{name: "unknown product", principal: f.customer, id: id, productID: 999, qty: 1, target: domain.ErrNotFound},
		{name: "driver cannot shop", principal: f.driver, id: domain.Identity{UserID: f.driver.UserID}, productID: f.panel.ID, qty: 1, target: domain.ErrPermissionDenied},
		{name: "anonymous without session", principal: domain.Anonymous(), id: domain.Identity{}, productID: f.panel.ID, qty: 1, target: domain.ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := carts.Add(ctx, tc.principal, tc.id, tc.productID, tc.qty)
			assert.ErrorIs(t, err, tc.target)
		})
	}

	lines, err := f.store.Carts().Lines(ctx, f.customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: f.panel.ID, Quantity: 5}}, lines)
}

func TestCartUpdateAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carts := f.carts()
	id := carts.Identity(f.customer, "")

	_, err := carts.Add(ctx, f.customer, id, f.inverter.ID, 1)
	require.NoError(t, err)

	line, err := carts.Update(ctx, f.customer, id, f.inverter.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, line.Quantity)

	_, err = carts.Update(ctx, f.customer, id, f.inverter.ID, 6)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	_, err = carts.Update(ctx, f.customer, id, f.inverter.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = carts.Update(ctx, f.customer, id, f.panel.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	lines, err := f.store.Carts().Lines(ctx, f.customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, 4, lines[0].Quantity, "failed updates keep the previous quantity")

	found, err := carts.Remove(ctx, f.customer, id, f.inverter.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = carts.Remove(ctx, f.customer, id, f.inverter.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCartView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carts := f.carts()
	id := carts.Identity(f.customer, "")

	view, err := carts.View(ctx, f.customer, id)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Total.IsZero())

	_, err = carts.Add(ctx, f.customer, id, f.panel.ID, 2)
	require.NoError(t, err)
	_, err = carts.Add(ctx, f.customer, id, f.inverter.ID, 1)
	require.NoError(t, err)

	view, err = carts.View(ctx, f.customer, id)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, 3, view.Count())
	assert.True(t, decimal.NewFromInt(53500).Equal(view.Total), "got %s", view.Total)
	assert.True(t, decimal.NewFromInt(30000).Equal(view.Lines[0].Subtotal))

	require.NoError(t, f.store.Products().SetStock(ctx, f.panel.ID, 0))
	view, err = carts.View(ctx, f.customer, id)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2, "sold out products stay visible in the cart")
}

func TestGuestCartMergesOnLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carts := f.carts()

	guest := carts.Identity(domain.Anonymous(), "")
	require.True(t, guest.Anonymous())
	require.NotEmpty(t, guest.GuestToken)

	_, err := carts.Add(ctx, domain.Anonymous(), guest, f.panel.ID, 2)
	require.NoError(t, err)
	_, err = carts.Add(ctx, domain.Anonymous(), guest, f.inverter.ID, 1)
	require.NoError(t, err)

	view, err := carts.View(ctx, domain.Anonymous(), guest)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Count())

	user := carts.Identity(f.customer, guest.GuestToken)
	assert.Equal(t, domain.Identity{UserID: f.customer.UserID}, user)
	_, err = carts.Add(ctx, f.customer, user, f.panel.ID, 1)
	require.NoError(t, err)

	report, err := carts.MergeGuest(ctx, f.customer.UserID, guest.GuestToken)
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	assert.Len(t, report.Merged, 2)

	lines, err := f.store.Carts().Lines(ctx, f.customer.UserID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.CartLine{
		{ProductID: f.panel.ID, Quantity: 3},
		{ProductID: f.inverter.ID, Quantity: 1},
	}, lines)

	guestLines, err := f.guests.Cart(guest.GuestToken).Lines(ctx)
	require.NoError(t, err)
	assert.Empty(t, guestLines, "guest cart is cleared after the merge")
}

func TestGuestCartMergeSkipsVanishedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token := f.guests.NewToken()
	guest := f.guests.Cart(token)
	require.NoError(t, guest.Put(ctx, f.panel.ID, 1))
	require.NoError(t, guest.Put(ctx, 999, 2))

	report, err := f.carts().MergeGuest(ctx, f.customer.UserID, token)
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, uint(999), report.Failed[0].ProductID)
	assert.ErrorIs(t, report.Err(), domain.ErrNotFound)

	lines, err := f.store.Carts().Lines(ctx, f.customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: f.panel.ID, Quantity: 1}}, lines)
}
