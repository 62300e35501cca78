package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTransitions(t *testing.T) {
	testCases := []struct {
		name       string
		from       OrderStatus
		transition func(o *Order) error
		wantStatus OrderStatus
		wantErr    bool
	}{
		{name: "pay pending", from: StatusPending, transition: func(o *Order) error { return o.MarkPaid("ws_CO_1") }, wantStatus: StatusPaid},
		{name: "pay paid is rejected", from: StatusPaid, transition: func(o *Order) error { return o.MarkPaid("ws_CO_2") }, wantStatus: StatusPaid, wantErr: true},
		{name: "pay delivered is rejected", from: StatusDelivered, transition: func(o *Order) error { return o.MarkPaid("x") }, wantStatus: StatusDelivered, wantErr: true},
		{name: "installation completes paid", from: StatusPaid, transition: (*Order).MarkReadyForDelivery, wantStatus: StatusShipped},
		{name: "installation completes shipped", from: StatusShipped, transition: (*Order).MarkReadyForDelivery, wantStatus: StatusShipped},
		{name: "installation on pending is rejected", from: StatusPending, transition: (*Order).MarkReadyForDelivery, wantStatus: StatusPending, wantErr: true},
		{name: "installation on delivered is rejected", from: StatusDelivered, transition: (*Order).MarkReadyForDelivery, wantStatus: StatusDelivered, wantErr: true},
		{name: "deliver paid skips shipped", from: StatusPaid, transition: (*Order).MarkDelivered, wantStatus: StatusDelivered},
		{name: "deliver shipped", from: StatusShipped, transition: (*Order).MarkDelivered, wantStatus: StatusDelivered},
		{name: "deliver delivered again", from: StatusDelivered, transition: (*Order).MarkDelivered, wantStatus: StatusDelivered},
		{name: "deliver pending is rejected", from: StatusPending, transition: (*Order).MarkDelivered, wantStatus: StatusPending, wantErr: true},
		{name: "cancelled is terminal", from: StatusCancelled, transition: (*Order).MarkDelivered, wantStatus: StatusCancelled, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := &Order{ID: 7, Status: tc.from}
			err := tc.transition(o)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTransition))
				var te *TransitionError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, tc.from, te.From)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantStatus, o.Status)
		})
	}
}

func TestMarkPaidKeepsFirstReference(t *testing.T) {
	o := &Order{Status: StatusPending}
	require.NoError(t, o.MarkPaid("CARD-1"))
	assert.Equal(t, "CARD-1", o.PaymentReference)

	err := o.MarkPaid("CARD-2")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "CARD-1", o.PaymentReference)
}

func TestEnsureGuards(t *testing.T) {
	pending := &Order{Status: StatusPending}
	paid := &Order{Status: StatusPaid}

	assert.NoError(t, pending.EnsurePayable())
	assert.ErrorIs(t, paid.EnsurePayable(), ErrInvalidTransition)
	assert.NoError(t, pending.EnsureDeletable())
	assert.ErrorIs(t, paid.EnsureDeletable(), ErrInvalidTransition)
}

func TestCommentEffects(t *testing.T) {
	t.Run("delivered comment on paid order", func(t *testing.T) {
		o := &Order{Status: StatusPaid}
		eff := ApplyDeliveryEffect(o, DeliveryDelivered)
		assert.True(t, eff.Attempted)
		assert.True(t, eff.StatusChanged)
		assert.Equal(t, StatusDelivered, o.Status)
	})

	t.Run("attempted comment leaves status", func(t *testing.T) {
		o := &Order{Status: StatusPaid}
		eff := ApplyDeliveryEffect(o, DeliveryAttempted)
		assert.False(t, eff.Attempted)
		assert.False(t, eff.StatusChanged)
		assert.Equal(t, StatusPaid, o.Status)
	})

	t.Run("delivered comment on pending order is refused", func(t *testing.T) {
		o := &Order{Status: StatusPending}
		eff := ApplyDeliveryEffect(o, DeliveryDelivered)
		assert.True(t, eff.Attempted)
		assert.False(t, eff.StatusChanged)
		assert.NotEmpty(t, eff.Reason)
		assert.Equal(t, StatusPending, o.Status)
	})

	t.Run("completed installation ships paid order", func(t *testing.T) {
		o := &Order{Status: StatusPaid}
		eff := ApplyInstallationEffect(o, InstallationCompleted)
		assert.True(t, eff.StatusChanged)
		assert.Equal(t, StatusShipped, o.Status)
	})

	t.Run("completed installation on shipped order is a no-op change", func(t *testing.T) {
		o := &Order{Status: StatusShipped}
		eff := ApplyInstallationEffect(o, InstallationCompleted)
		assert.True(t, eff.Attempted)
		assert.False(t, eff.StatusChanged)
		assert.Empty(t, eff.Reason)
	})
}
