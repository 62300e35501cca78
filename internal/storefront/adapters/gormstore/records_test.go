package gormstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

func TestTranslate(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		target error
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, target: domain.ErrNotFound},
		{name: "wrapped not found", err: fmt.Errorf("query: %w", gorm.ErrRecordNotFound), target: domain.ErrNotFound},
		{name: "duplicate key", err: gorm.ErrDuplicatedKey, target: domain.ErrConflict},
		{name: "cancelled", err: context.Canceled, target: context.Canceled},
		{name: "anything else", err: errors.New("connection reset"), target: domain.ErrPersistence},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tc.err, "order", 1), tc.target)
		})
	}
	assert.NoError(t, translate(nil, "order", 1))
}

func TestOrderMapping(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	in := &domain.Order{
		ID:                9,
		UserID:            3,
		PaymentMethodID:   2,
		PaymentMethodCode: domain.MethodMpesa,
		Status:            domain.StatusPaid,
		TotalAmount:       decimal.NewFromInt(23500),
		Shipping:          domain.ShippingAddress{Address: "Kenyatta Ave", City: "Nairobi", Country: "Kenya", PostalCode: "00100"},
		Contact:           domain.Contact{Phone: "0712345678", Email: "a@b.co"},
		PaymentReference:  "ws_CO_1",
		Items:             []domain.OrderItem{{ProductID: 4, ProductName: "Inverter", Quantity: 1, Price: decimal.NewFromInt(23500)}},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	rec := orderFromDomain(in)
	assert.Equal(t, "paid", rec.Status)
	assert.Equal(t, "mpesa", rec.PaymentMethodCode)
	assert.Len(t, rec.Items, 1)

	out := rec.toDomain()
	assert.Equal(t, in.Shipping, out.Shipping)
	assert.Equal(t, in.Contact, out.Contact)
	assert.Equal(t, in.Status, out.Status)
	assert.True(t, in.TotalAmount.Equal(out.TotalAmount))
	assert.Equal(t, in.Items[0].ProductName, out.Items[0].ProductName)
}

func TestTableNames(t *testing.T) {
	type named interface{ TableName() string }
	seen := map[string]bool{}
	for _, m := range models {
		n, ok := m.(named)
		if assert.True(t, ok, "%T has no table name", m) {
			assert.False(t, seen[n.TableName()], "duplicate table %s", n.TableName())
			seen[n.TableName()] = true
		}
	}
}

func TestGormConfigTranslatesErrors(t *testing.T) {
	cfg := gormConfig()
	assert.True(t, cfg.TranslateError)
	assert.Equal(t, time.UTC, cfg.NowFunc().Location())
}

func TestModelsIncludePaymentReferences(t *testing.T) {
	assert.Contains(t, models, any(&paymentReferenceRecord{}))
	assert.Equal(t, "payment_references", paymentReferenceRecord{}.TableName())
}
