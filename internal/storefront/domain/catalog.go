package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uint
	Name        string
	Description string
	Slug        string
}

// Product is catalog reference data. Stock is never negative and Slug is
// unique across products.
type Product struct {
	ID          uint
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
	Slug        string
	Featured    bool
	CategoryID  uint
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) HasStock(qty int) bool {
	return qty > 0 && p.Stock >= qty
}

type ProductFilter struct {
	CategorySlug string
	FeaturedOnly bool
	Search       string
}

// LowStockThreshold marks products that need restocking soon.
const LowStockThreshold = 10

type InventoryStats struct {
	Total      int64
	LowStock   int64
	OutOfStock int64
	InStock    int64
}

type StockAction string

const (
	StockAdd    StockAction = "add"
	StockRemove StockAction = "remove"
	StockSet    StockAction = "set"
)

// ApplyStock returns the stock level after applying action. Removal and
// absolute sets are floored at zero.
func ApplyStock(current int, action StockAction, qty int) (int, error) {
	var next int
	switch action {
	case StockAdd:
		next = current + qty
	case StockRemove:
		next = current - qty
	case StockSet:
		next = qty
	default:
		return current, NewValidationError("invalid stock action", "action")
	}
	if next < 0 {
		next = 0
	}
	return next, nil
}

// Review is unique per (user, product); resubmission updates it in place.
type Review struct {
	ID        uint
	ProductID uint
	UserID    uint
	Username  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// AverageRating returns 0 for a product with no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
