package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TemplateType string

const (
	TemplateInvoice TemplateType = "invoice"
	TemplateReceipt TemplateType = "receipt"
	TemplateQuote   TemplateType = "quote"
)

// InvoiceTemplate carries company branding for rendered documents. Empty
// fields fall back to DefaultInvoiceTemplate.
type InvoiceTemplate struct {
	ID                  uint
	Name                string
	Type                TemplateType
	CompanyName         string
	CompanyAddress      string
	CompanyPhone        string
	CompanyEmail        string
	CompanyLogoURL      string
	HeaderText          string
	FooterText          string
	TermsConditions     string
	PaymentInstructions string
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func DefaultInvoiceTemplate() InvoiceTemplate {
	return InvoiceTemplate{
		Name:                "Default Invoice",
		Type:                TemplateInvoice,
		CompanyName:         "Mo Solar Technologies",
		CompanyAddress:      "P.O. Box 12345, Nairobi, Kenya",
		CompanyPhone:        "+254727811269",
		CompanyEmail:        "info@mo-solar.co.ke",
		FooterText:          "Thank you for choosing Mo Solar Technologies!",
		TermsConditions:     "Payment is due within 30 days of the invoice date. Goods remain the property of Mo Solar Technologies until paid in full.",
		PaymentInstructions: "Pay via M-Pesa or card. Quote the invoice number as the payment reference.",
		Active:              true,
	}
}

// WithFallbacks fills empty branding fields from the defaults.
func (t InvoiceTemplate) WithFallbacks() InvoiceTemplate {
	d := DefaultInvoiceTemplate()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&t.CompanyName, d.CompanyName)
	fill(&t.CompanyAddress, d.CompanyAddress)
	fill(&t.CompanyPhone, d.CompanyPhone)
	fill(&t.CompanyEmail, d.CompanyEmail)
	fill(&t.FooterText, d.FooterText)
	fill(&t.TermsConditions, d.TermsConditions)
	fill(&t.PaymentInstructions, d.PaymentInstructions)
	if t.Type == "" {
		t.Type = TemplateInvoice
	}
	return t
}

func InvoiceNumber(orderID uint) string {
	return fmt.Sprintf("INV-%06d", orderID)
}

// FormatKES renders an amount as "KES 1,234.00".
func FormatKES(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("KES %s%s.%s", sign, b.String(), frac)
}

// InvoiceDocument is everything the renderer needs for one order.
type InvoiceDocument struct {
	Number   string
	Order    Order
	Customer User
	Method   PaymentMethod
	Template InvoiceTemplate
	IssuedAt time.Time
}
