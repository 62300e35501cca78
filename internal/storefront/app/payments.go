package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ioproxxy/mosolarweb/internal/coordinator"
	"github.com/ioproxxy/mosolarweb/internal/coordinator/sagalog"
	"github.com/ioproxxy/mosolarweb/internal/pkg/events"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type PaymentRequest struct {
	// Method overrides the order's payment method when set.
	Method     domain.PaymentMethodCode `json:"payment_method"`
	CardNumber string                   `json:"card_number"`
	Expiry     string                   `json:"expiry"`
	CVV        string                   `json:"cvv"`
	CardHolder string                   `json:"card_holder"`
	Phone      string                   `json:"phone"`
}

// PaymentOutcome is the user-facing result of a payment attempt. A decline
// is Success=false with a message and no error.
type PaymentOutcome struct {
	Success       bool
	TransactionID string
	Message       string
	DevMode       bool
	// AwaitingConfirmation is set when the gateway confirms asynchronously
	// through the callback.
	AwaitingConfirmation bool
	Order                *domain.Order
}

// paymentPayload is the workflow log payload of a payment run.
type paymentPayload struct {
	OrderID uint                     `json:"order_id"`
	Method  domain.PaymentMethodCode `json:"method"`
	Amount  string                   `json:"amount"`
}

type PaymentService struct {
	store    Store
	gateway  PaymentGateway
	log      sagalog.Repository
	events   events.Publisher
	invoices *InvoiceService
}

func NewPaymentService(store Store, gateway PaymentGateway, log sagalog.Repository, publisher events.Publisher, invoices *InvoiceService) *PaymentService {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &PaymentService{store: store, gateway: gateway, log: log, events: publisher, invoices: invoices}
}

// Pay charges the order through the gateway and marks it paid. The order
// must be pending before the gateway is contacted, so a paid order is never
// charged twice.
func (s *PaymentService) Pay(ctx context.Context, p domain.Principal, orderID uint, req PaymentRequest) (*PaymentOutcome, error) {
	if err := p.Require(domain.CapShop); err != nil {
		return nil, err
	}

	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(p.UserID) {
		return nil, domain.NotFound("order", orderID)
	}
	if err := order.EnsurePayable(); err != nil {
		return nil, err
	}

	method, err := s.resolveMethod(ctx, order, req.Method)
	if err != nil {
		return nil, err
	}

	charge := &chargeStep{gateway: s.gateway, order: order, method: method.Code}
	switch method.Code {
	case domain.MethodCard:
		charge.card = CardDetails{Number: req.CardNumber, Expiry: req.Expiry, CVV: req.CVV, Holder: req.CardHolder}
		if err := s.gateway.ValidateCard(charge.card); err != nil {
			return nil, err
		}
	case domain.MethodMpesa:
		phone, err := domain.NormalizeKenyanPhone(req.Phone)
		if err != nil {
			return nil, err
		}
		charge.phone = phone
	default:
		return nil, domain.NewValidationError("unsupported payment method", "payment_method")
	}

	record := &recordPaymentStep{store: s.store, orderID: order.ID, charge: charge}
	sagaID := fmt.Sprintf("payment:%d:%s", order.ID, uuid.NewString())
	payload, err := json.Marshal(paymentPayload{
		OrderID: order.ID,
		Method:  method.Code,
		Amount:  order.TotalAmount.StringFixed(2),
	})
	if err != nil {
		return nil, fmt.Errorf("encode payment payload: %w", err)
	}

	err = coordinator.NewOrchestrator(sagaID, []coordinator.Step{charge, record}, s.log).
		WithPayload(string(payload)).
		Start(ctx)

	var declined *declinedError
	if errors.As(err, &declined) {
		slog.InfoContext(ctx, "payment declined", "order_id", order.ID, "method", method.Code, "reason", declined.message)
		return &PaymentOutcome{Success: false, Message: declined.message, DevMode: charge.result.DevMode, Order: order}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "payment workflow failed", "order_id", order.ID, "saga_id", sagaID, "error", err)
		return nil, err
	}

	paid := record.order
	outcome := &PaymentOutcome{
		Success:       true,
		TransactionID: charge.result.TransactionID,
		Message:       charge.result.Message,
		DevMode:       charge.result.DevMode,
		Order:         paid,
	}
	if paid.Status != domain.StatusPaid {
		outcome.AwaitingConfirmation = true
		slog.InfoContext(ctx, "payment awaiting confirmation", "order_id", paid.ID, "reference", paid.PaymentReference)
		return outcome, nil
	}

	slog.InfoContext(ctx, "order paid", "order_id", paid.ID, "reference", paid.PaymentReference, "method", method.Code)
	s.afterPaid(ctx, paid)
	return outcome, nil
}

func (s *PaymentService) resolveMethod(ctx context.Context, order *domain.Order, code domain.PaymentMethodCode) (*domain.PaymentMethod, error) {
	var (
		method *domain.PaymentMethod
		err    error
	)
	if code != "" {
		method, err = s.store.PaymentMethods().GetByCode(ctx, code)
	} else {
		method, err = s.store.PaymentMethods().Get(ctx, order.PaymentMethodID)
	}
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !method.IsActive) {
		return nil, domain.NewValidationError("invalid payment method", "payment_method")
	}
	return method, err
}

// afterPaid runs the best-effort follow-ups of a successful payment.
func (s *PaymentService) afterPaid(ctx context.Context, order *domain.Order) {
	publishOrderEvent(ctx, s.events, events.OrderPaid, order, map[string]any{"reference": order.PaymentReference})
	if s.invoices == nil {
		return
	}
	if err := s.invoices.Email(ctx, order.ID); err != nil {
		slog.WarnContext(ctx, "invoice e-mail failed", "order_id", order.ID, "error", err)
	}
}

// MpesaCallback is the Daraja STK push result envelope.
type MpesaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        *int   `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type CallbackResult struct {
	Matched bool
	Paid    bool
	OrderID uint
}

// HandleMpesaCallback reconciles an asynchronous M-Pesa result. Unknown,
// failed and malformed callbacks change nothing and are not errors.
func (s *PaymentService) HandleMpesaCallback(ctx context.Context, body []byte) (CallbackResult, error) {
	var res CallbackResult

	var cb MpesaCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		slog.WarnContext(ctx, "malformed mpesa callback", "error", err)
		return res, nil
	}
	stk := cb.Body.StkCallback
	if stk.ResultCode == nil || stk.CheckoutRequestID == "" {
		slog.WarnContext(ctx, "incomplete mpesa callback", "checkout_request_id", stk.CheckoutRequestID)
		return res, nil
	}
	if *stk.ResultCode != 0 {
		slog.InfoContext(ctx, "mpesa payment not completed", "checkout_request_id", stk.CheckoutRequestID, "result_code", *stk.ResultCode, "result_desc", stk.ResultDesc)
		return res, nil
	}

	var paid *domain.Order
	err := s.store.WithinTx(ctx, func(tx Store) error {
		order, err := tx.Orders().GetByPaymentReference(ctx, stk.CheckoutRequestID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res.Matched = true
		res.OrderID = order.ID
		if order.Status != domain.StatusPending {
			if order.PaymentReference != stk.CheckoutRequestID {
				slog.WarnContext(ctx, "mpesa payment for an order settled by another reference",
					"order_id", order.ID, "checkout_request_id", stk.CheckoutRequestID, "reference", order.PaymentReference)
			}
			return nil
		}
		if err := order.MarkPaid(stk.CheckoutRequestID); err != nil {
			return err
		}
		if err := tx.Orders().UpdateStatus(ctx, order); err != nil {
			return err
		}
		paid = order
		return nil
	})
	if err != nil {
		return CallbackResult{}, err
	}

	if paid != nil {
		res.Paid = true
		slog.InfoContext(ctx, "order paid by mpesa callback", "order_id", paid.ID, "reference", paid.PaymentReference)
		s.afterPaid(ctx, paid)
	}
	return res, nil
}

// PaymentRun is one recorded payment attempt.
type PaymentRun struct {
	ID      string
	Status  sagalog.Status
	Entries []sagalog.Entry
}

// PaymentLog returns the recorded workflow runs of an order, newest run
// first. Only available when the log supports reads.
func (s *PaymentService) PaymentLog(ctx context.Context, p domain.Principal, orderID uint) ([]PaymentRun, error) {
	if err := p.Require(domain.CapViewAllOrders); err != nil {
		return nil, err
	}
	reader, ok := s.log.(sagalog.Reader)
	if !ok {
		return nil, nil
	}
	ids, err := reader.SagasByPrefix(ctx, fmt.Sprintf("payment:%d:", orderID))
	if err != nil {
		return nil, err
	}
	runs := make([]PaymentRun, 0, len(ids))
	for _, id := range ids {
		latest, err := reader.GetLatest(ctx, id)
		if err != nil {
			return nil, err
		}
		h, err := reader.History(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, PaymentRun{ID: id, Status: latest.Status, Entries: h})
	}
	return runs, nil
}
