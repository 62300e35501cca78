package domain

import "slices"

// Transition names an order status change.
type Transition string

const (
	TransitionPay                  Transition = "pay"
	TransitionCompleteInstallation Transition = "complete_installation"
	TransitionDeliver              Transition = "deliver"
)

type transitionRule struct {
	from []OrderStatus
	to   OrderStatus
}

// transitions is the complete order state machine. Cancelled is reserved
// and has no inbound rule.
var transitions = map[Transition]transitionRule{
	TransitionPay: {
		from: []OrderStatus{StatusPending},
		to:   StatusPaid,
	},
	// Installer finished: the order is ready for delivery.
	TransitionCompleteInstallation: {
		from: []OrderStatus{StatusPaid, StatusShipped},
		to:   StatusShipped,
	},
	// Drivers may deliver a paid order without an explicit shipped step.
	TransitionDeliver: {
		from: []OrderStatus{StatusPaid, StatusShipped, StatusDelivered},
		to:   StatusDelivered,
	},
}

// Can reports whether t is allowed from the order's current status.
func (o *Order) Can(t Transition) bool {
	rule, ok := transitions[t]
	return ok && slices.Contains(rule.from, o.Status)
}

func (o *Order) apply(t Transition) error {
	if !o.Can(t) {
		return &TransitionError{OrderID: o.ID, From: o.Status, Transition: t}
	}
	o.Status = transitions[t].to
	return nil
}

// MarkPaid moves a pending order to paid and stores the gateway reference
// verbatim.
func (o *Order) MarkPaid(reference string) error {
	if err := o.apply(TransitionPay); err != nil {
		return err
	}
	o.PaymentReference = reference
	return nil
}

func (o *Order) MarkReadyForDelivery() error {
	return o.apply(TransitionCompleteInstallation)
}

func (o *Order) MarkDelivered() error {
	return o.apply(TransitionDeliver)
}

// EnsurePayable guards payment submission before any gateway call.
func (o *Order) EnsurePayable() error {
	if !o.Can(TransitionPay) {
		return &TransitionError{OrderID: o.ID, From: o.Status, Transition: TransitionPay}
	}
	return nil
}

// EnsureDeletable allows cancellation-by-removal of pending orders only.
func (o *Order) EnsureDeletable() error {
	if o.Status != StatusPending {
		return &TransitionError{OrderID: o.ID, From: o.Status, Transition: "delete"}
	}
	return nil
}

// AwaitPayment stores the reference of a payment that the gateway will
// confirm later. The order stays pending until MarkPaid.
func (o *Order) AwaitPayment(reference string) error {
	if err := o.EnsurePayable(); err != nil {
		return err
	}
	o.PaymentReference = reference
	return nil
}
