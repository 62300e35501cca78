package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	// StatusCancelled is reserved. No transition produces it.
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type ShippingAddress struct {
	Address    string
	City       string
	Country    string
	PostalCode string
}

type Contact struct {
	Phone string
	Email string
}

// Order is a frozen, priced record of a checkout. TotalAmount is fixed at
// creation and never recalculated.
type Order struct {
	ID                uint
	UserID            uint
	PaymentMethodID   uint
	PaymentMethodCode PaymentMethodCode
	Status            OrderStatus
	TotalAmount       decimal.Decimal
	Shipping          ShippingAddress
	Contact           Contact
	PaymentReference  string
	Items             []OrderItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderItem carries the unit price copied from the product at order time.
type OrderItem struct {
	ID          uint
	OrderID     uint
	ProductID   uint
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums the frozen subtotals of the order's items.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (o *Order) OwnedBy(userID uint) bool {
	return o.UserID != 0 && o.UserID == userID
}

type PaymentMethodCode string

const (
	MethodCard  PaymentMethodCode = "card"
	MethodMpesa PaymentMethodCode = "mpesa"
)

type PaymentMethod struct {
	ID       uint
	Name     string
	Code     PaymentMethodCode
	IsActive bool
}
