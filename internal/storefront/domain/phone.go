package domain

import (
	"regexp"
	"strings"
)

var kenyanMobile = regexp.MustCompile(`^(?:\+?254|0)([17]\d{8})$`)

// NormalizeKenyanPhone accepts +2547…, 2547…, 07… and 01… numbers and
// returns them as 254XXXXXXXXX.
func NormalizeKenyanPhone(phone string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if p == "" {
		return "", NewValidationError("phone number is required for M-Pesa payments", "phone")
	}
	m := kenyanMobile.FindStringSubmatch(p)
	if m == nil {
		return "", NewValidationError("invalid Kenyan mobile number", "phone")
	}
	return "254" + m[1], nil
}
