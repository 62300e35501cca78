package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ioproxxy/mosolarweb/internal/pkg/events"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type CheckoutInput struct {
	PaymentMethodID uint   `json:"payment_method_id" validate:"required"`
	Address         string `json:"shipping_address" validate:"required,max=256"`
	City            string `json:"shipping_city" validate:"required,max=64"`
	Country         string `json:"shipping_country" validate:"required,max=64"`
	PostalCode      string `json:"shipping_postal_code" validate:"required,max=20"`
	Phone           string `json:"contact_phone" validate:"required,max=20"`
	Email           string `json:"contact_email" validate:"required,email,max=120"`
}

type CheckoutResult struct {
	Order   *domain.Order
	Dropped []domain.DroppedLine
}

type OrderService struct {
	store  Store
	events events.Publisher
	policy domain.CheckoutPolicy
	now    func() time.Time
}

func NewOrderService(store Store, publisher events.Publisher, policy domain.CheckoutPolicy) *OrderService {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	if policy == "" {
		policy = domain.PolicyDropUnavailable
	}
	return &OrderService{store: store, events: publisher, policy: policy, now: time.Now}
}

// Checkout turns the caller's persisted cart into a pending order in a
// single transaction: prices are frozen into the items, stock is debited,
// and the cart lines are removed.
func (s *OrderService) Checkout(ctx context.Context, p domain.Principal, in CheckoutInput) (*CheckoutResult, error) {
	if err := p.Require(domain.CapShop); err != nil {
		return nil, err
	}
	if err := validateInput(in, "invalid checkout details"); err != nil {
		return nil, err
	}

	var result CheckoutResult
	err := s.store.WithinTx(ctx, func(tx Store) error {
		method, err := tx.PaymentMethods().Get(ctx, in.PaymentMethodID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !method.IsActive) {
			return domain.NewValidationError("invalid payment method", "payment_method_id")
		}
		if err != nil {
			return err
		}

		cart := newUserCart(tx.Carts(), p.UserID)
		lines, err := cart.Lines(ctx)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		now := s.now().UTC()
		order := &domain.Order{
			UserID:            p.UserID,
			PaymentMethodID:   method.ID,
			PaymentMethodCode: method.Code,
			Status:            domain.StatusPending,
			Shipping: domain.ShippingAddress{
				Address:    in.Address,
				City:       in.City,
				Country:    in.Country,
				PostalCode: in.PostalCode,
			},
			Contact:   domain.Contact{Phone: in.Phone, Email: in.Email},
			CreatedAt: now,
			UpdatedAt: now,
		}

		for _, line := range lines {
			product, err := tx.Products().Get(ctx, line.ProductID)
			if err == nil && !product.HasStock(line.Quantity) {
				err = &domain.OutOfStockError{ProductID: line.ProductID, Available: product.Stock, Requested: line.Quantity}
			}
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrOutOfStock) {
					return err
				}
				if s.policy == domain.PolicyAllOrNothing {
					return err
				}
				result.Dropped = append(result.Dropped, domain.DroppedLine{ProductID: line.ProductID, Quantity: line.Quantity, Reason: err})
				continue
			}
			order.Items = append(order.Items, domain.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       product.Price,
			})
		}
		if len(order.Items) == 0 {
			return domain.ErrEmptyCart
		}

		for _, it := range order.Items {
			if err := tx.Products().DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("debit stock of product %d: %w", it.ProductID, err)
			}
		}

		order.TotalAmount = order.ItemsTotal()
		if err := tx.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if err := cart.Clear(ctx); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		result.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, d := range result.Dropped {
		slog.InfoContext(ctx, "cart line dropped at checkout", "order_id", result.Order.ID, "product_id", d.ProductID, "reason", d.Reason)
	}
	slog.InfoContext(ctx, "order created", "order_id", result.Order.ID, "user_id", p.UserID, "total", result.Order.TotalAmount.StringFixed(2))
	s.publish(ctx, events.OrderCreated, result.Order, map[string]any{"total": result.Order.TotalAmount.StringFixed(2)})
	return &result, nil
}

// Get returns an order to its owner or to staff allowed to see it.
func (s *OrderService) Get(ctx context.Context, p domain.Principal, id uint) (*domain.Order, error) {
	order, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeOrder(p, order) {
		return nil, domain.NotFound("order", id)
	}
	return order, nil
}

func canSeeOrder(p domain.Principal, o *domain.Order) bool {
	switch {
	case o.OwnedBy(p.UserID):
		return true
	case p.Has(domain.CapViewAllOrders), p.Has(domain.CapDeliver), p.Has(domain.CapInstall):
		return true
	}
	return false
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	if err := p.Require(domain.CapShop); err != nil {
		return nil, err
	}
	return s.store.Orders().ListByUser(ctx, p.UserID)
}

// queueStatuses are the work queues per role. Admin sees every order.
var queueStatuses = map[domain.Role][]domain.OrderStatus{
	domain.RoleDriver:    {domain.StatusPaid, domain.StatusShipped},
	domain.RoleInstaller: {domain.StatusPaid, domain.StatusShipped, domain.StatusDelivered},
	domain.RoleHelpdesk:  {domain.StatusPending},
	domain.RoleAdmin:     nil,
}

// Queue lists the orders the caller's role works on.
func (s *OrderService) Queue(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	statuses, ok := queueStatuses[p.Role]
	if !ok || !p.Authenticated() {
		return nil, domain.ErrPermissionDenied
	}
	return s.store.Orders().ListByStatus(ctx, statuses...)
}

// Delete removes a pending order of the caller and credits its items back
// to stock. This is the only path that restocks.
func (s *OrderService) Delete(ctx context.Context, p domain.Principal, id uint) error {
	if err := p.Require(domain.CapShop); err != nil {
		return err
	}

	var deleted *domain.Order
	err := s.store.WithinTx(ctx, func(tx Store) error {
		order, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		if !order.OwnedBy(p.UserID) {
			return domain.NotFound("order", id)
		}
		if err := order.EnsureDeletable(); err != nil {
			return err
		}
		for _, it := range order.Items {
			if err := tx.Products().IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					slog.WarnContext(ctx, "restock skipped, product gone", "order_id", id, "product_id", it.ProductID)
					continue
				}
				return fmt.Errorf("credit stock of product %d: %w", it.ProductID, err)
			}
		}
		if err := tx.Orders().Delete(ctx, id); err != nil {
			return err
		}
		deleted = order
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "order deleted", "order_id", id, "user_id", p.UserID)
	s.publish(ctx, events.OrderDeleted, deleted, nil)
	return nil
}

func (s *OrderService) publish(ctx context.Context, name string, o *domain.Order, data map[string]any) {
	publishOrderEvent(ctx, s.events, name, o, data)
}

// publishOrderEvent is best-effort: the state change is already committed.
func publishOrderEvent(ctx context.Context, pub events.Publisher, name string, o *domain.Order, data map[string]any) {
	err := pub.Publish(ctx, events.Event{
		Name:       name,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		Data:       data,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "event publish failed", "event", name, "order_id", o.ID, "error", err)
	}
}
