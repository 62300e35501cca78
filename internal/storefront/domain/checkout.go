package domain

import "fmt"

// CheckoutPolicy decides what happens to cart lines whose product vanished
// or lacks stock at checkout.
type CheckoutPolicy string

const (
	// PolicyDropUnavailable leaves such lines out of the order.
	PolicyDropUnavailable CheckoutPolicy = "drop_unavailable"
	// PolicyAllOrNothing fails the whole checkout instead.
	PolicyAllOrNothing CheckoutPolicy = "all_or_nothing"
)

func ParseCheckoutPolicy(s string) (CheckoutPolicy, error) {
	switch p := CheckoutPolicy(s); p {
	case "":
		return PolicyDropUnavailable, nil
	case PolicyDropUnavailable, PolicyAllOrNothing:
		return p, nil
	}
	return "", fmt.Errorf("unknown checkout policy %q", s)
}

// DroppedLine is a cart line left out of an order.
type DroppedLine struct {
	ProductID uint
	Quantity  int
	Reason    error
}
