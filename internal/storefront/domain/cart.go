package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CartLine is one (product, quantity) pair. The product id doubles as the
// line reference: a cart holds at most one line per product.
type CartLine struct {
	ProductID uint
	Quantity  int
}

// Cart is a mutable pre-checkout container. It is backed either by the
// relational store (registered users) or by the key-value cache (guests).
type Cart interface {
	Lines(ctx context.Context) ([]CartLine, error)
	// Put sets the absolute quantity of the product's line, creating it if needed.
	Put(ctx context.Context, productID uint, quantity int) error
	// Delete removes the product's line and reports whether it existed.
	Delete(ctx context.Context, productID uint) (bool, error)
	Clear(ctx context.Context) error
}

// Identity selects a cart: a registered user or an anonymous session token.
type Identity struct {
	UserID     uint
	GuestToken string
}

func (i Identity) Anonymous() bool { return i.UserID == 0 }

func (i Identity) Valid() bool { return i.UserID != 0 || i.GuestToken != "" }

// FindLine returns the line for productID, if any.
func FindLine(lines []CartLine, productID uint) (CartLine, bool) {
	for _, l := range lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// PricedLine is a cart line joined with the product's current price.
type PricedLine struct {
	Product  Product
	Quantity int
	Subtotal decimal.Decimal
}

// CartView is a cart materialised at read time. Totals follow current
// product prices; they are not frozen.
type CartView struct {
	Lines []PricedLine
	Total decimal.Decimal
}

func (v CartView) Count() int {
	n := 0
	for _, l := range v.Lines {
		n += l.Quantity
	}
	return n
}

func PriceLine(p Product, qty int) PricedLine {
	return PricedLine{
		Product:  p,
		Quantity: qty,
		Subtotal: p.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// MergeFailure records a line that could not be merged.
type MergeFailure struct {
	ProductID uint
	Err       error
}

type MergeReport struct {
	Merged []CartLine
	Failed []MergeFailure
}

// MergeCarts adds every line of from into into, summing quantities for
// products already present. A failing line does not stop the others.
// exists may veto lines whose product vanished. The source cart is left
// untouched; the caller clears it once the merge attempt is over.
func MergeCarts(ctx context.Context, from, into Cart, exists func(ctx context.Context, productID uint) error) (MergeReport, error) {
	var report MergeReport

	src, err := from.Lines(ctx)
	if err != nil {
		return report, fmt.Errorf("read source cart: %w", err)
	}
	if len(src) == 0 {
		return report, nil
	}

	dst, err := into.Lines(ctx)
	if err != nil {
		return report, fmt.Errorf("read target cart: %w", err)
	}

	for _, line := range src {
		if line.Quantity < 1 {
			report.Failed = append(report.Failed, MergeFailure{ProductID: line.ProductID, Err: NewValidationError("quantity must be at least 1", "quantity")})
			continue
		}
		if exists != nil {
			if err := exists(ctx, line.ProductID); err != nil {
				report.Failed = append(report.Failed, MergeFailure{ProductID: line.ProductID, Err: err})
				continue
			}
		}

		qty := line.Quantity
		if existing, ok := FindLine(dst, line.ProductID); ok {
			qty += existing.Quantity
		}
		if err := into.Put(ctx, line.ProductID, qty); err != nil {
			report.Failed = append(report.Failed, MergeFailure{ProductID: line.ProductID, Err: err})
			continue
		}
		report.Merged = append(report.Merged, CartLine{ProductID: line.ProductID, Quantity: qty})
	}
	return report, nil
}

// Err joins the per-line failures, nil when every line merged.
func (r MergeReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = fmt.Errorf("product %d: %w", f.ProductID, f.Err)
	}
	return errors.Join(errs...)
}
