package gateway

import (
	"strconv"
	"strings"
	"time"

	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

// ValidateCard checks the card fields before any charge is attempted.
func (g *Gateway) ValidateCard(card app.CardDetails) error {
	var bad []string

	number := digitsOnly(card.Number)
	if len(number) != len(strings.NewReplacer(" ", "", "-", "").Replace(card.Number)) ||
		len(number) < 13 || len(number) > 19 || !luhn(number) {
		bad = append(bad, "card_number")
	}
	if !validExpiry(card.Expiry, g.now()) {
		bad = append(bad, "expiry")
	}
	if cvv := strings.TrimSpace(card.CVV); len(cvv) < 3 || len(cvv) > 4 || digitsOnly(cvv) != cvv {
		bad = append(bad, "cvv")
	}
	if strings.TrimSpace(card.Holder) == "" {
		bad = append(bad, "card_holder")
	}

	if len(bad) > 0 {
		return domain.NewValidationError("invalid card details", bad...)
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// validExpiry accepts MM/YY and MM/YYYY. A card is valid through the last
// day of its expiry month.
func validExpiry(expiry string, now time.Time) bool {
	mm, yy, ok := strings.Cut(strings.TrimSpace(expiry), "/")
	if !ok || len(mm) != 2 || (len(yy) != 2 && len(yy) != 4) {
		return false
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return false
	}
	year, err := strconv.Atoi(yy)
	if err != nil {
		return false
	}
	if len(yy) == 2 {
		year += 2000
	}
	firstOfNext := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return now.UTC().Before(firstOfNext)
}
