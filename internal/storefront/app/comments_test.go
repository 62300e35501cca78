package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ioproxxy/mosolarweb/internal/pkg/events"
	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

func intPtr(v int) *int { return &v }

// orderIn places an order and forces it into status.
func (f *fixture) orderIn(t *testing.T, status domain.OrderStatus) *domain.Order {
	t.Helper()
	o := f.placeOrder(t, f.customer, f.card, domain.CartLine{ProductID: f.panel.ID, Quantity: 1})
	if status != domain.StatusPending {
		o.Status = status
		o.PaymentReference = "CARD-seed"
		require.NoError(t, f.store.Orders().UpdateStatus(context.Background(), o))
	}
	return o
}

func TestDeliveryCommentEffects(t *testing.T) {
	testCases := []struct {
		name       string
		from       domain.OrderStatus
		status     domain.DeliveryStatus
		want       domain.OrderStatus
		changed    bool
		attempted  bool
		wantReason bool
	}{
		{name: "delivered from paid", from: domain.StatusPaid, status: domain.DeliveryDelivered, want: domain.StatusDelivered, changed: true, attempted: true},
		{name: "delivered from shipped", from: domain.StatusShipped, status: domain.DeliveryDelivered, want: domain.StatusDelivered, changed: true, attempted: true},
		{name: "delivered twice", from: domain.StatusDelivered, status: domain.DeliveryDelivered, want: domain.StatusDelivered, attempted: true},
		{name: "delivered while unpaid", from: domain.StatusPending, status: domain.DeliveryDelivered, want: domain.StatusPending, attempted: true, wantReason: true},
		{name: "attempted only logs", from: domain.StatusPaid, status: domain.DeliveryAttempted, want: domain.StatusPaid},
		{name: "issue only logs", from: domain.StatusShipped, status: domain.DeliveryIssue, want: domain.StatusShipped},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			order := f.orderIn(t, tc.from)

			res, err := f.comments().AddDeliveryComment(ctx, f.driver, order.ID, app.DeliveryCommentInput{
				Comment: "Dropped at the gate",
				Status:  tc.status,
				Rating:  intPtr(5),
			})
			require.NoError(t, err)
			assert.Equal(t, "kamau", res.Comment.DriverName)
			assert.Equal(t, tc.changed, res.Effect.StatusChanged)
			assert.Equal(t, tc.attempted, res.Effect.Attempted)
			assert.Equal(t, tc.wantReason, res.Effect.Reason != "")
			assert.Equal(t, tc.want, f.order(t, order.ID).Status)

			log, err := f.comments().ListDelivery(ctx, f.driver, order.ID)
			require.NoError(t, err)
			assert.Len(t, log, 1, "the comment is stored whatever the effect")

			if tc.changed {
				assert.Contains(t, f.events.names(), events.OrderDelivered)
			} else {
				assert.NotContains(t, f.events.names(), events.OrderDelivered)
			}
		})
	}
}

func TestInstallationCommentEffects(t *testing.T) {
	testCases := []struct {
		name    string
		from    domain.OrderStatus
		status  domain.InstallationStatus
		want    domain.OrderStatus
		changed bool
	}{
		{name: "completed from paid", from: domain.StatusPaid, status: domain.InstallationCompleted, want: domain.StatusShipped, changed: true},
		{name: "completed when shipped", from: domain.StatusShipped, status: domain.InstallationCompleted, want: domain.StatusShipped},
		{name: "completed after delivery", from: domain.StatusDelivered, status: domain.InstallationCompleted, want: domain.StatusDelivered},
		{name: "completed while unpaid", from: domain.StatusPending, status: domain.InstallationCompleted, want: domain.StatusPending},
		{name: "in progress only logs", from: domain.StatusPaid, status: domain.InstallationInProgress, want: domain.StatusPaid},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			order := f.orderIn(t, tc.from)

			res, err := f.comments().AddInstallationComment(ctx, f.installer, order.ID, app.InstallationCommentInput{
				Comment:              "Panels mounted",
				Status:               tc.status,
				TechnicalNotes:       "3kVA hybrid, 4 panels",
				CompletionPercentage: intPtr(100),
			})
			require.NoError(t, err)
			assert.Equal(t, "achieng", res.Comment.InstallerName)
			assert.Equal(t, 100, res.Comment.CompletionPercentage)
			assert.Equal(t, tc.changed, res.Effect.StatusChanged)
			assert.Equal(t, tc.want, f.order(t, order.ID).Status)

			if tc.changed {
				assert.Contains(t, f.events.names(), events.OrderShipped)
			}
		})
	}
}

func TestCommentRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.orderIn(t, domain.StatusPaid)
	comments := f.comments()

	delivery := func(in app.DeliveryCommentInput, p domain.Principal, orderID uint) error {
		_, err := comments.AddDeliveryComment(ctx, p, orderID, in)
		return err
	}
	installation := func(in app.InstallationCommentInput, p domain.Principal, orderID uint) error {
		_, err := comments.AddInstallationComment(ctx, p, orderID, in)
		return err
	}
	okDelivery := app.DeliveryCommentInput{Comment: "ok", Status: domain.DeliveryDelivered}
	okInstall := app.InstallationCommentInput{Comment: "ok", Status: domain.InstallationCompleted}

	testCases := []struct {
		name   string
		err    error
		target error
	}{
		{name: "customer delivery", err: delivery(okDelivery, f.customer, order.ID), target: domain.ErrPermissionDenied},
		{name: "installer delivery", err: delivery(okDelivery, f.installer, order.ID), target: domain.ErrPermissionDenied},
		{name: "driver installation", err: installation(okInstall, f.driver, order.ID), target: domain.ErrPermissionDenied},
		{name: "unknown delivery status", err: delivery(app.DeliveryCommentInput{Comment: "x", Status: "lost"}, f.driver, order.ID), target: domain.ErrValidation},
		{name: "rating above five", err: delivery(app.DeliveryCommentInput{Comment: "x", Status: domain.DeliveryDelivered, Rating: intPtr(6)}, f.driver, order.ID), target: domain.ErrValidation},
		{name: "empty comment", err: delivery(app.DeliveryCommentInput{Status: domain.DeliveryDelivered}, f.driver, order.ID), target: domain.ErrValidation},
		{name: "completion above 100", err: installation(app.InstallationCommentInput{Comment: "x", Status: domain.InstallationInProgress, CompletionPercentage: intPtr(101)}, f.installer, order.ID), target: domain.ErrValidation},
		{name: "negative completion", err: installation(app.InstallationCommentInput{Comment: "x", Status: domain.InstallationInProgress, CompletionPercentage: intPtr(-1)}, f.installer, order.ID), target: domain.ErrValidation},
		{name: "unknown order", err: delivery(okDelivery, f.driver, 999), target: domain.ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.target)
		})
	}
	assert.Equal(t, domain.StatusPaid, f.order(t, order.ID).Status)
}

func TestCommentLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.orderIn(t, domain.StatusPaid)
	comments := f.comments()

	for _, status := range []domain.DeliveryStatus{domain.DeliveryAttempted, domain.DeliveryRescheduled} {
		_, err := comments.AddDeliveryComment(ctx, f.driver, order.ID, app.DeliveryCommentInput{Comment: string(status), Status: status})
		require.NoError(t, err)
	}
	_, err := comments.AddInstallationComment(ctx, f.installer, order.ID, app.InstallationCommentInput{Comment: "scheduled", Status: domain.InstallationScheduled})
	require.NoError(t, err)

	log, err := comments.ListDelivery(ctx, f.helpdesk, order.ID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, domain.DeliveryRescheduled, log[0].DeliveryStatus, "newest first")

	installs, err := comments.ListInstallation(ctx, f.admin, order.ID)
	require.NoError(t, err)
	assert.Len(t, installs, 1)

	_, err = comments.ListDelivery(ctx, f.installer, order.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = comments.ListInstallation(ctx, f.customer, order.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = comments.ListDelivery(ctx, f.driver, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
