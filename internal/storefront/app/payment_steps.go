package app

import (
	"context"
	"fmt"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

// declinedError stops the workflow when the gateway refuses a charge.
type declinedError struct {
	message string
}

func (e *declinedError) Error() string { return "payment declined: " + e.message }

// chargeStep calls the gateway. Its compensation refunds a successful
// charge when recording the payment fails afterwards.
type chargeStep struct {
	gateway PaymentGateway
	order   *domain.Order
	method  domain.PaymentMethodCode
	card    CardDetails
	phone   string
	result  GatewayResult
}

func (s *chargeStep) Name() string { return "charge_" + string(s.method) }

func (s *chargeStep) Execute(ctx context.Context) error {
	var (
		res GatewayResult
		err error
	)
	switch s.method {
	case domain.MethodCard:
		res, err = s.gateway.ChargeCard(ctx, s.order, s.card)
	case domain.MethodMpesa:
		res, err = s.gateway.ChargeMobileMoney(ctx, s.order, s.phone)
	default:
		return domain.NewValidationError("unsupported payment method", "payment_method")
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}
	s.result = res
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Payment failed"
		}
		return &declinedError{message: msg}
	}
	return nil
}

func (s *chargeStep) Compensate(ctx context.Context) error {
	if !s.result.Success || s.result.TransactionID == "" {
		return nil
	}
	return s.gateway.Refund(ctx, s.result.TransactionID)
}

// recordPaymentStep stores the gateway reference on the order. A dev-mode
// or card result marks it paid; a live M-Pesa push leaves it pending for
// the callback.
type recordPaymentStep struct {
	store   Store
	orderID uint
	charge  *chargeStep
	order   *domain.Order
}

func (s *recordPaymentStep) Name() string { return "record_payment" }

func (s *recordPaymentStep) Execute(ctx context.Context) error {
	ref := s.charge.result.TransactionID
	awaitCallback := s.charge.method == domain.MethodMpesa && !s.charge.result.DevMode

	return s.store.WithinTx(ctx, func(tx Store) error {
		order, err := tx.Orders().Get(ctx, s.orderID)
		if err != nil {
			return err
		}
		if awaitCallback {
			err = order.AwaitPayment(ref)
		} else {
			err = order.MarkPaid(ref)
		}
		if err != nil {
			return err
		}
		if err := tx.Orders().UpdateStatus(ctx, order); err != nil {
			return fmt.Errorf("record payment of order %d: %w", s.orderID, err)
		}
		if awaitCallback {
			if err := tx.Orders().AddPaymentReference(ctx, s.orderID, ref); err != nil {
				return fmt.Errorf("record payment reference of order %d: %w", s.orderID, err)
			}
		}
		s.order = order
		return nil
	})
}

func (s *recordPaymentStep) Compensate(context.Context) error { return nil }
