package app_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ioproxxy/mosolarweb/internal/pkg/events"
	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

func (f *fixture) fillCart(t *testing.T, lines ...domain.CartLine) {
	t.Helper()
	for _, l := range lines {
		require.NoError(t, f.store.Carts().Put(context.Background(), f.customer.UserID, l.ProductID, l.Quantity))
	}
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, domain.CartLine{ProductID: f.panel.ID, Quantity: 2}, domain.CartLine{ProductID: f.inverter.ID, Quantity: 1})

	res, err := f.orders(domain.PolicyDropUnavailable).Checkout(ctx, f.customer, checkoutInput(f.card.ID))
	require.NoError(t, err)
	assert.Empty(t, res.Dropped)

	order := res.Order
	assert.NotZero(t, order.ID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, f.customer.UserID, order.UserID)
	assert.Equal(t, domain.MethodCard, order.PaymentMethodCode)
	assert.True(t, decimal.NewFromInt(53500).Equal(order.TotalAmount), "got %s", order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Solar Panel 300W", order.Items[0].ProductName)
	assert.True(t, f.panel.Price.Equal(order.Items[0].Price))
	assert.Equal(t, "Nairobi", order.Shipping.City)

	assert.Equal(t, 8, f.product(t, f.panel.ID).Stock)
	assert.Equal(t, 4, f.product(t, f.inverter.ID).Stock)

	lines, err := f.store.Carts().Lines(ctx, f.customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	stored := f.order(t, order.ID)
	assert.True(t, order.TotalAmount.Equal(stored.TotalAmount))
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, []string{events.OrderCreated}, f.events.names())
}

func TestCheckoutUnavailableLines(t *testing.T) {
	testCases := []struct {
		name    string
		policy  domain.CheckoutPolicy
		wantErr error
	}{
		{name: "drop unavailable", policy: domain.PolicyDropUnavailable},
		{name: "all or nothing", policy: domain.PolicyAllOrNothing, wantErr: domain.ErrOutOfStock},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.fillCart(t, domain.CartLine{ProductID: f.panel.ID, Quantity: 1}, domain.CartLine{ProductID: f.inverter.ID, Quantity: 3})
			require.NoError(t, f.store.Products().SetStock(ctx, f.inverter.ID, 1))

			res, err := f.orders(tc.policy).Checkout(ctx, f.customer, checkoutInput(f.card.ID))
			lines, lerr := f.store.Carts().Lines(ctx, f.customer.UserID)
			require.NoError(t, lerr)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, 10, f.product(t, f.panel.ID).Stock, "stock untouched")
				assert.Len(t, lines, 2, "cart untouched")
				all, err := f.store.Orders().ListByUser(ctx, f.customer.UserID)
				require.NoError(t, err)
				assert.Empty(t, all)
				return
			}

			require.NoError(t, err)
			require.Len(t, res.Order.Items, 1)
			assert.Equal(t, f.panel.ID, res.Order.Items[0].ProductID)
			assert.True(t, decimal.NewFromInt(15000).Equal(res.Order.TotalAmount))
			require.Len(t, res.Dropped, 1)
			assert.Equal(t, f.inverter.ID, res.Dropped[0].ProductID)
			assert.ErrorIs(t, res.Dropped[0].Reason, domain.ErrOutOfStock)
			assert.Equal(t, 1, f.product(t, f.inverter.ID).Stock)
			assert.Empty(t, lines)
		})
	}
}

func TestCheckoutRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orders := f.orders(domain.PolicyDropUnavailable)

	_, err := orders.Checkout(ctx, f.customer, checkoutInput(f.card.ID))
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	f.fillCart(t, domain.CartLine{ProductID: f.battery.ID, Quantity: 1})
	_, err = orders.Checkout(ctx, f.customer, checkoutInput(f.card.ID))
	assert.ErrorIs(t, err, domain.ErrEmptyCart, "a cart of unavailable lines is empty")

	lines, err := f.store.Carts().Lines(ctx, f.customer.UserID)
	require.NoError(t, err)
	assert.Len(t, lines, 1, "a failed checkout keeps the cart")

	badEmail := checkoutInput(f.card.ID)
	badEmail.Email = "not-an-email"

	testCases := []struct {
		name      string
		principal domain.Principal
		in        app.CheckoutInput
		target    error
	}{
		{name: "inactive method", principal: f.customer, in: checkoutInput(f.cash.ID), target: domain.ErrValidation},
		{name: "unknown method", principal: f.customer, in: checkoutInput(999), target: domain.ErrValidation},
		{name: "invalid e-mail", principal: f.customer, in: badEmail, target: domain.ErrValidation},
		{name: "missing address", principal: f.customer, in: app.CheckoutInput{PaymentMethodID: f.card.ID}, target: domain.ErrValidation},
		{name: "installer cannot shop", principal: f.installer, in: checkoutInput(f.card.ID), target: domain.ErrPermissionDenied},
		{name: "anonymous", principal: domain.Anonymous(), in: checkoutInput(f.card.ID), target: domain.ErrPermissionDenied},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := orders.Checkout(ctx, tc.principal, tc.in)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestCheckoutRollsBackOnStorageFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, domain.CartLine{ProductID: f.panel.ID, Quantity: 2})

	orders := app.NewOrderService(&failingStore{Store: f.store, failCreate: true}, f.events, domain.PolicyDropUnavailable)
	_, err := orders.Checkout(ctx, f.customer, checkoutInput(f.card.ID))
	assert.ErrorIs(t, err, errInjected)

	assert.Equal(t, 10, f.product(t, f.panel.ID).Stock)
	lines, err := f.store.Carts().Lines(ctx, f.customer.UserID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Empty(t, f.events.names())
}

func TestOrderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, f.customer, f.card, domain.CartLine{ProductID: f.panel.ID, Quantity: 1})
	orders := f.orders(domain.PolicyDropUnavailable)

	testCases := []struct {
		name      string
		principal domain.Principal
		visible   bool
	}{
		{name: "owner", principal: f.customer, visible: true},
		{name: "other customer", principal: f.other},
		{name: "anonymous", principal: domain.Anonymous()},
		{name: "driver", principal: f.driver, visible: true},
		{name: "installer", principal: f.installer, visible: true},
		{name: "helpdesk", principal: f.helpdesk, visible: true},
		{name: "admin", principal: f.admin, visible: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := orders.Get(ctx, tc.principal, order.ID)
			if !tc.visible {
				assert.ErrorIs(t, err, domain.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, order.ID, got.ID)
		})
	}

	mine, err := orders.ListMine(ctx, f.customer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := orders.ListMine(ctx, f.other)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestOrderQueues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.placeOrder(t, f.customer, f.card, domain.CartLine{ProductID: f.panel.ID, Quantity: 1})
	paid := f.placeOrder(t, f.customer, f.card, domain.CartLine{ProductID: f.inverter.ID, Quantity: 1})
	require.NoError(t, paid.MarkPaid("CARD-x"))
	require.NoError(t, f.store.Orders().UpdateStatus(ctx, paid))

	orders := f.orders(domain.PolicyDropUnavailable)
	ids := func(list []domain.Order) []uint {
		out := make([]uint, len(list))
		for i, o := range list {
			out[i] = o.ID
		}
		return out
	}

	testCases := []struct {
		name      string
		principal domain.Principal
		want      []uint
		target    error
	}{
		{name: "driver", principal: f.driver, want: []uint{paid.ID}},
		{name: "installer", principal: f.installer, want: []uint{paid.ID}},
		{name: "helpdesk", principal: f.helpdesk, want: []uint{pending.ID}},
		{name: "admin", principal: f.admin, want: []uint{pending.ID, paid.ID}},
		{name: "customer", principal: f.customer, target: domain.ErrPermissionDenied},
		{name: "anonymous", principal: domain.Anonymous(), target: domain.ErrPermissionDenied},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := orders.Queue(ctx, tc.principal)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
				return
			}
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, ids(got))
		})
	}
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orders := f.orders(domain.PolicyDropUnavailable)

	order := f.placeOrder(t, f.customer, f.card, domain.CartLine{ProductID: f.panel.ID, Quantity: 3})
	assert.Equal(t, 7, f.product(t, f.panel.ID).Stock)

	assert.ErrorIs(t, orders.Delete(ctx, f.other, order.ID), domain.ErrNotFound)
	assert.ErrorIs(t, orders.Delete(ctx, f.driver, order.ID), domain.ErrPermissionDenied)

	require.NoError(t, orders.Delete(ctx, f.customer, order.ID))
	assert.Equal(t, 10, f.product(t, f.panel.ID).Stock, "deleting a pending order restocks")
	_, err := f.store.Orders().Get(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, f.events.names(), events.OrderDeleted)

	paid := f.placeOrder(t, f.customer, f.card, domain.CartLine{ProductID: f.panel.ID, Quantity: 1})
	require.NoError(t, paid.MarkPaid("CARD-y"))
	require.NoError(t, f.store.Orders().UpdateStatus(ctx, paid))

	assert.ErrorIs(t, orders.Delete(ctx, f.customer, paid.ID), domain.ErrInvalidTransition)
	assert.Equal(t, 9, f.product(t, f.panel.ID).Stock)
}
