package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAutoReply(t *testing.T) {
	testCases := []struct {
		message string
		want    string
		ok      bool
	}{
		{message: "How much is a 200W panel?", want: "Our solar panels start from KSh 15,000", ok: true},
		{message: "Do you do INSTALLATION in Thika", want: "We provide professional installation", ok: true},
		{message: "what's the warranty", want: "25-year manufacturer warranty", ok: true},
		{message: "Can I pay with M-Pesa", want: "We accept M-Pesa", ok: true},
		{message: "hi there", want: "Hello! I'm here to help", ok: true},
		{message: "thanks!", want: "You're welcome!", ok: true},
		{message: "My inverter makes a buzzing noise at night", ok: false},
	}
	for _, tc := range testCases {
		t.Run(tc.message, func(t *testing.T) {
			got, ok := AutoReply(tc.message)
			assert.Equal(t, tc.ok, ok)
			assert.Contains(t, got, tc.want)
		})
	}
}

func TestTicketApplyReply(t *testing.T) {
	tk := &SupportTicket{Status: TicketOpen}
	assert.NoError(t, tk.ApplyReply(false, TicketClosed))
	assert.Equal(t, TicketOpen, tk.Status)

	assert.NoError(t, tk.ApplyReply(true, ""))
	assert.Equal(t, TicketInProgress, tk.Status)

	assert.NoError(t, tk.ApplyReply(true, TicketResolved))
	assert.Equal(t, TicketResolved, tk.Status)

	assert.ErrorIs(t, tk.ApplyReply(true, "archived"), ErrValidation)
}

func TestInvoiceFormatting(t *testing.T) {
	assert.Equal(t, "INV-000042", InvoiceNumber(42))
	assert.Equal(t, "KES 1,234.00", FormatKES(decimal.RequireFromString("1234")))
	assert.Equal(t, "KES 23,500.50", FormatKES(decimal.RequireFromString("23500.5")))
	assert.Equal(t, "KES 999.00", FormatKES(decimal.RequireFromString("999")))
	assert.Equal(t, "KES 1,000,000.00", FormatKES(decimal.RequireFromString("1000000")))

	tpl := InvoiceTemplate{CompanyName: "Acme"}.WithFallbacks()
	assert.Equal(t, "Acme", tpl.CompanyName)
	assert.Equal(t, "+254727811269", tpl.CompanyPhone)
	assert.Equal(t, TemplateInvoice, tpl.Type)
}
