package memstore

import (
	"context"
	"maps"
	"slices"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type cartRepo struct{ s *Store }

func (r cartRepo) Lines(_ context.Context, userID uint) ([]domain.CartLine, error) {
	var out []domain.CartLine
	err := r.s.with(func(st *state) error {
		out = slices.Clone(st.carts[userID])
		return nil
	})
	return out, err
}

func (r cartRepo) Put(_ context.Context, userID, productID uint, qty int) error {
	return r.s.with(func(st *state) error {
		lines := st.carts[userID]
		for i := range lines {
			if lines[i].ProductID == productID {
				lines[i].Quantity = qty
				return nil
			}
		}
		st.carts[userID] = append(lines, domain.CartLine{ProductID: productID, Quantity: qty})
		return nil
	})
}

func (r cartRepo) Delete(_ context.Context, userID, productID uint) (bool, error) {
	found := false
	err := r.s.with(func(st *state) error {
		lines := st.carts[userID]
		idx := slices.IndexFunc(lines, func(l domain.CartLine) bool { return l.ProductID == productID })
		if idx < 0 {
			return nil
		}
		st.carts[userID] = slices.Delete(lines, idx, idx+1)
		found = true
		return nil
	})
	return found, err
}

func (r cartRepo) Clear(_ context.Context, userID uint) error {
	return r.s.with(func(st *state) error {
		delete(st.carts, userID)
		return nil
	})
}

func (r cartRepo) RemoveProduct(_ context.Context, productID uint) error {
	return r.s.with(func(st *state) error {
		for userID, lines := range st.carts {
			st.carts[userID] = slices.DeleteFunc(lines, func(l domain.CartLine) bool { return l.ProductID == productID })
		}
		return nil
	})
}

type orderRepo struct{ s *Store }

func copyOrder(o domain.Order) *domain.Order {
	o.Items = slices.Clone(o.Items)
	return &o
}

func (r orderRepo) Create(_ context.Context, o *domain.Order) error {
	return r.s.with(func(st *state) error {
		o.ID = st.nextID()
		for i := range o.Items {
			o.Items[i].ID = st.nextID()
			o.Items[i].OrderID = o.ID
		}
		st.orders[o.ID] = *copyOrder(*o)
		return nil
	})
}

func (r orderRepo) Get(_ context.Context, id uint) (*domain.Order, error) {
	var out *domain.Order
	err := r.s.with(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return domain.NotFound("order", id)
		}
		out = copyOrder(o)
		return nil
	})
	return out, err
}

func (r orderRepo) GetByPaymentReference(_ context.Context, ref string) (*domain.Order, error) {
	var out *domain.Order
	err := r.s.with(func(st *state) error {
		if ref == "" {
			return domain.NotFound("order with payment reference", ref)
		}
		for _, o := range st.orders {
			if o.PaymentReference == ref {
				out = copyOrder(o)
				return nil
			}
		}
		if id, ok := st.paymentRefs[ref]; ok {
			if o, ok := st.orders[id]; ok {
				out = copyOrder(o)
				return nil
			}
		}
		return domain.NotFound("order with payment reference", ref)
	})
	return out, err
}

func (r orderRepo) AddPaymentReference(_ context.Context, orderID uint, ref string) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.orders[orderID]; !ok {
			return domain.NotFound("order", orderID)
		}
		if owner, ok := st.paymentRefs[ref]; ok && owner != orderID {
			return domain.ErrConflict
		}
		st.paymentRefs[ref] = orderID
		return nil
	})
}

func (r orderRepo) list(match func(domain.Order) bool) ([]domain.Order, error) {
	var out []domain.Order
	err := r.s.with(func(st *state) error {
		for _, o := range st.orders {
			if match(o) {
				out = append(out, *copyOrder(o))
			}
		}
		return nil
	})
	newestFirst(out, func(o domain.Order) (int64, uint) { return o.CreatedAt.UnixNano(), o.ID })
	return out, err
}

func (r orderRepo) ListByUser(_ context.Context, userID uint) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool { return o.UserID == userID })
}

func (r orderRepo) ListByStatus(_ context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool {
		return len(statuses) == 0 || slices.Contains(statuses, o.Status)
	})
}

func (r orderRepo) UpdateStatus(_ context.Context, o *domain.Order) error {
	return r.s.with(func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return domain.NotFound("order", o.ID)
		}
		cur.Status = o.Status
		cur.PaymentReference = o.PaymentReference
		cur.UpdatedAt = o.UpdatedAt
		st.orders[o.ID] = cur
		return nil
	})
}

func (r orderRepo) Delete(_ context.Context, id uint) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return domain.NotFound("order", id)
		}
		delete(st.orders, id)
		maps.DeleteFunc(st.paymentRefs, func(_ string, orderID uint) bool { return orderID == id })
		st.deliveries = slices.DeleteFunc(st.deliveries, func(c domain.DeliveryComment) bool { return c.OrderID == id })
		st.installations = slices.DeleteFunc(st.installations, func(c domain.InstallationComment) bool { return c.OrderID == id })
		return nil
	})
}

func (r orderRepo) ContainsProduct(_ context.Context, productID uint) (bool, error) {
	found := false
	err := r.s.with(func(st *state) error {
		for _, o := range st.orders {
			if slices.ContainsFunc(o.Items, func(it domain.OrderItem) bool { return it.ProductID == productID }) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

type methodRepo struct{ s *Store }

func (r methodRepo) Get(_ context.Context, id uint) (*domain.PaymentMethod, error) {
	var out *domain.PaymentMethod
	err := r.s.with(func(st *state) error {
		m, ok := st.methods[id]
		if !ok {
			return domain.NotFound("payment method", id)
		}
		out = &m
		return nil
	})
	return out, err
}

func (r methodRepo) GetByCode(_ context.Context, code domain.PaymentMethodCode) (*domain.PaymentMethod, error) {
	var out *domain.PaymentMethod
	err := r.s.with(func(st *state) error {
		for _, m := range st.methods {
			if m.Code == code {
				out = &m
				return nil
			}
		}
		return domain.NotFound("payment method", code)
	})
	return out, err
}

func (r methodRepo) ListActive(_ context.Context) ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	err := r.s.with(func(st *state) error {
		for _, m := range st.methods {
			if m.IsActive {
				out = append(out, m)
			}
		}
		slices.SortFunc(out, func(a, b domain.PaymentMethod) int { return int(a.ID) - int(b.ID) })
		return nil
	})
	return out, err
}

func (r methodRepo) Create(_ context.Context, m *domain.PaymentMethod) error {
	return r.s.with(func(st *state) error {
		m.ID = st.nextID()
		st.methods[m.ID] = *m
		return nil
	})
}

type commentRepo struct{ s *Store }

func (r commentRepo) AddDelivery(_ context.Context, c *domain.DeliveryComment) error {
	return r.s.with(func(st *state) error {
		c.ID = st.nextID()
		st.deliveries = append(st.deliveries, *c)
		return nil
	})
}

func (r commentRepo) AddInstallation(_ context.Context, c *domain.InstallationComment) error {
	return r.s.with(func(st *state) error {
		c.ID = st.nextID()
		st.installations = append(st.installations, *c)
		return nil
	})
}

func (r commentRepo) ListDelivery(_ context.Context, orderID uint) ([]domain.DeliveryComment, error) {
	var out []domain.DeliveryComment
	err := r.s.with(func(st *state) error {
		for _, c := range st.deliveries {
			if c.OrderID == orderID {
				out = append(out, c)
			}
		}
		return nil
	})
	newestFirst(out, func(c domain.DeliveryComment) (int64, uint) { return c.CreatedAt.UnixNano(), c.ID })
	return out, err
}

func (r commentRepo) ListInstallation(_ context.Context, orderID uint) ([]domain.InstallationComment, error) {
	var out []domain.InstallationComment
	err := r.s.with(func(st *state) error {
		for _, c := range st.installations {
			if c.OrderID == orderID {
				out = append(out, c)
			}
		}
		return nil
	})
	newestFirst(out, func(c domain.InstallationComment) (int64, uint) { return c.CreatedAt.UnixNano(), c.ID })
	return out, err
}
