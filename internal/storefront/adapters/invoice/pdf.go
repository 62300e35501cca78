// Package invoice renders order invoices as PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

const (
	font       = "Helvetica"
	pageWidth  = 190.0
	lineHeight = 6.0
)

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 90, "L"},
	{"Qty", 20, "C"},
	{"Unit price", 40, "R"},
	{"Subtotal", 40, "R"},
}

type Renderer struct{}

var _ app.InvoiceRenderer = Renderer{}

func NewRenderer() Renderer { return Renderer{} }

func (Renderer) Render(doc domain.InvoiceDocument) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Number, true)
	pdf.SetAuthor(doc.Template.CompanyName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	header(pdf, tr, doc)
	parties(pdf, tr, doc)
	items(pdf, tr, doc.Order)
	footer(pdf, tr, doc.Template)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoice: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func header(pdf *fpdf.Fpdf, tr func(string) string, doc domain.InvoiceDocument) {
	t := doc.Template
	pdf.SetFont(font, "B", 18)
	pdf.CellFormat(pageWidth/2, 10, tr(t.CompanyName), "", 0, "L", false, 0, "")
	pdf.SetFont(font, "B", 14)
	pdf.CellFormat(pageWidth/2, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont(font, "", 9)
	for _, l := range []string{t.CompanyAddress, t.CompanyPhone, t.CompanyEmail} {
		pdf.CellFormat(pageWidth, 5, tr(l), "", 1, "L", false, 0, "")
	}
	if t.HeaderText != "" {
		pdf.Ln(2)
		pdf.MultiCell(pageWidth, 5, tr(t.HeaderText), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont(font, "", 10)
	meta := [][2]string{
		{"Invoice number", doc.Number},
		{"Date", doc.IssuedAt.Format("02 Jan 2006")},
		{"Order", fmt.Sprintf("#%d", doc.Order.ID)},
		{"Status", strings.ToUpper(string(doc.Order.Status))},
		{"Payment method", doc.Method.Name},
	}
	if doc.Order.PaymentReference != "" {
		meta = append(meta, [2]string{"Payment reference", doc.Order.PaymentReference})
	}
	for _, m := range meta {
		pdf.SetFont(font, "B", 10)
		pdf.CellFormat(45, lineHeight, m[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont(font, "", 10)
		pdf.CellFormat(pageWidth-45, lineHeight, tr(m[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func parties(pdf *fpdf.Fpdf, tr func(string) string, doc domain.InvoiceDocument) {
	o := doc.Order
	name := strings.TrimSpace(doc.Customer.FirstName + " " + doc.Customer.LastName)
	if name == "" {
		name = doc.Customer.Username
	}

	pdf.SetFont(font, "B", 11)
	pdf.CellFormat(pageWidth, lineHeight, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", 10)
	lines := []string{
		name,
		o.Shipping.Address,
		strings.Trim(fmt.Sprintf("%s %s", o.Shipping.City, o.Shipping.PostalCode), " "),
		o.Shipping.Country,
		o.Contact.Phone,
		o.Contact.Email,
	}
	for _, l := range lines {
		if l == "" {
			continue
		}
		pdf.CellFormat(pageWidth, 5, tr(l), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func items(pdf *fpdf.Fpdf, tr func(string) string, o domain.Order) {
	pdf.SetFont(font, "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for _, c := range columns {
		pdf.CellFormat(c.width, 8, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(font, "", 10)
	for _, it := range o.Items {
		cells := []string{
			it.ProductName,
			fmt.Sprintf("%d", it.Quantity),
			domain.FormatKES(it.Price),
			domain.FormatKES(it.Subtotal()),
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, 7, tr(cells[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont(font, "B", 11)
	labelWidth := columns[0].width + columns[1].width + columns[2].width
	pdf.CellFormat(labelWidth, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(columns[3].width, 8, domain.FormatKES(o.TotalAmount), "1", 1, "R", false, 0, "")
	pdf.Ln(6)
}

func footer(pdf *fpdf.Fpdf, tr func(string) string, t domain.InvoiceTemplate) {
	sections := [][2]string{
		{"Payment instructions", t.PaymentInstructions},
		{"Terms and conditions", t.TermsConditions},
	}
	for _, s := range sections {
		if s[1] == "" {
			continue
		}
		pdf.SetFont(font, "B", 10)
		pdf.CellFormat(pageWidth, lineHeight, s[0], "", 1, "L", false, 0, "")
		pdf.SetFont(font, "", 9)
		pdf.MultiCell(pageWidth, 5, tr(s[1]), "", "L", false)
		pdf.Ln(2)
	}
	if t.FooterText != "" {
		pdf.Ln(4)
		pdf.SetFont(font, "I", 10)
		pdf.CellFormat(pageWidth, lineHeight, tr(t.FooterText), "", 1, "C", false, 0, "")
	}
}
