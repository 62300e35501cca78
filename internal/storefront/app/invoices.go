package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ioproxxy/mosolarweb/internal/pkg/mail"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type Invoice struct {
	Number string
	PDF    []byte
}

func (i Invoice) FileName() string { return i.Number + ".pdf" }

type InvoiceService struct {
	store    Store
	renderer InvoiceRenderer
	mailer   mail.Mailer
	now      func() time.Time
}

func NewInvoiceService(store Store, renderer InvoiceRenderer, mailer mail.Mailer) *InvoiceService {
	if mailer == nil {
		mailer = mail.NewNoop()
	}
	return &InvoiceService{store: store, renderer: renderer, mailer: mailer, now: time.Now}
}

// Generate renders the invoice of an order for its owner or an admin.
func (s *InvoiceService) Generate(ctx context.Context, p domain.Principal, orderID uint) (*Invoice, error) {
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(p.UserID) && !p.Has(domain.CapReadAnyInvoice) {
		return nil, domain.NotFound("order", orderID)
	}
	return s.render(ctx, order)
}

// Email sends the invoice to the order's contact address.
func (s *InvoiceService) Email(ctx context.Context, orderID uint) error {
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return err
	}
	inv, err := s.render(ctx, order)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, mail.Message{
		To:       order.Contact.Email,
		Subject:  fmt.Sprintf("Your Mo Solar invoice %s", inv.Number),
		TextBody: fmt.Sprintf("Thank you for your order. Your payment of %s was received. The invoice is attached.", domain.FormatKES(order.TotalAmount)),
		Attachments: []mail.Attachment{
			{Name: inv.FileName(), ContentType: "application/pdf", Data: inv.PDF},
		},
	})
}

func (s *InvoiceService) render(ctx context.Context, order *domain.Order) (*Invoice, error) {
	doc, err := s.document(ctx, order)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", doc.Number, err)
	}
	return &Invoice{Number: doc.Number, PDF: pdf}, nil
}

func (s *InvoiceService) document(ctx context.Context, order *domain.Order) (domain.InvoiceDocument, error) {
	doc := domain.InvoiceDocument{
		Number:   domain.InvoiceNumber(order.ID),
		Order:    *order,
		IssuedAt: s.now().UTC(),
	}

	customer, err := s.store.Users().Get(ctx, order.UserID)
	switch {
	case err == nil:
		doc.Customer = *customer
	case !errors.Is(err, domain.ErrNotFound):
		return doc, err
	}

	method, err := s.store.PaymentMethods().Get(ctx, order.PaymentMethodID)
	switch {
	case err == nil:
		doc.Method = *method
	case errors.Is(err, domain.ErrNotFound):
		doc.Method = domain.PaymentMethod{Code: order.PaymentMethodCode, Name: string(order.PaymentMethodCode)}
	default:
		return doc, err
	}

	tpl, err := s.store.InvoiceTemplates().Active(ctx, domain.TemplateInvoice)
	switch {
	case err == nil:
		doc.Template = tpl.WithFallbacks()
	case errors.Is(err, domain.ErrNotFound):
		doc.Template = domain.DefaultInvoiceTemplate()
	default:
		return doc, err
	}
	return doc, nil
}

// TemplateInput is the editable content of an invoice template.
type TemplateInput struct {
	Name                string              `json:"name" validate:"required,max=100"`
	Type                domain.TemplateType `json:"template_type" validate:"required,oneof=invoice receipt quote"`
	CompanyName         string              `json:"company_name" validate:"required,max=100"`
	CompanyAddress      string              `json:"company_address" validate:"required"`
	CompanyPhone        string              `json:"company_phone" validate:"required,max=20"`
	CompanyEmail        string              `json:"company_email" validate:"required,email,max=120"`
	CompanyLogoURL      string              `json:"company_logo_url" validate:"omitempty,max=256"`
	HeaderText          string              `json:"header_text"`
	FooterText          string              `json:"footer_text"`
	TermsConditions     string              `json:"terms_conditions"`
	PaymentInstructions string              `json:"payment_instructions"`
	// Active is left unchanged on update when nil. New templates are active.
	Active *bool `json:"active"`
}

func (in TemplateInput) applyTo(t *domain.InvoiceTemplate) {
	t.Name = in.Name
	t.Type = in.Type
	t.CompanyName = in.CompanyName
	t.CompanyAddress = in.CompanyAddress
	t.CompanyPhone = in.CompanyPhone
	t.CompanyEmail = in.CompanyEmail
	t.CompanyLogoURL = in.CompanyLogoURL
	t.HeaderText = in.HeaderText
	t.FooterText = in.FooterText
	t.TermsConditions = in.TermsConditions
	t.PaymentInstructions = in.PaymentInstructions
	if in.Active != nil {
		t.Active = *in.Active
	}
}

func (s *InvoiceService) Templates(ctx context.Context, p domain.Principal) ([]domain.InvoiceTemplate, error) {
	if err := p.Require(domain.CapManageTemplates); err != nil {
		return nil, err
	}
	return s.store.InvoiceTemplates().List(ctx)
}

// CreateTemplate stores a new template. The newest active invoice
// template brands every invoice rendered afterwards.
func (s *InvoiceService) CreateTemplate(ctx context.Context, p domain.Principal, in TemplateInput) (*domain.InvoiceTemplate, error) {
	if err := p.Require(domain.CapManageTemplates); err != nil {
		return nil, err
	}
	if err := validateInput(in, "invalid template"); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	tpl := &domain.InvoiceTemplate{Active: true, CreatedAt: now, UpdatedAt: now}
	in.applyTo(tpl)
	if err := s.store.InvoiceTemplates().Save(ctx, tpl); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "invoice template created", "template_id", tpl.ID, "type", tpl.Type)
	return tpl, nil
}

func (s *InvoiceService) UpdateTemplate(ctx context.Context, p domain.Principal, id uint, in TemplateInput) (*domain.InvoiceTemplate, error) {
	if err := p.Require(domain.CapManageTemplates); err != nil {
		return nil, err
	}
	if err := validateInput(in, "invalid template"); err != nil {
		return nil, err
	}
	var tpl *domain.InvoiceTemplate
	err := s.store.WithinTx(ctx, func(tx Store) error {
		var err error
		tpl, err = tx.InvoiceTemplates().Get(ctx, id)
		if err != nil {
			return err
		}
		in.applyTo(tpl)
		tpl.UpdatedAt = s.now().UTC()
		return tx.InvoiceTemplates().Save(ctx, tpl)
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "invoice template updated", "template_id", tpl.ID)
	return tpl, nil
}
