package httpx

import (
	"time"

	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type CartItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type StockUpdateRequest struct {
	Action   domain.StockAction `json:"action"`
	Quantity int                `json:"quantity"`
}

type ChatMessageRequest struct {
	Message string `json:"message"`
}

type TicketReplyRequest struct {
	Message string              `json:"message"`
	Status  domain.TicketStatus `json:"status"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type ProductResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Price       string            `json:"price"`
	Stock       int               `json:"stock"`
	InStock     bool              `json:"in_stock"`
	ImageURL    string            `json:"image_url,omitempty"`
	Featured    bool              `json:"featured"`
	Category    *CategoryResponse `json:"category,omitempty"`
}

type ProductPageResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

type ReviewResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductDetailResponse struct {
	ProductResponse
	AverageRating float64          `json:"average_rating"`
	Reviews       []ReviewResponse `json:"reviews"`
}

type CartLineResponse struct {
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Count int                `json:"count"`
	Total string             `json:"total"`
}

type OrderItemResponse struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID               uint                `json:"id"`
	Status           string              `json:"status"`
	Total            string              `json:"total"`
	PaymentMethod    string              `json:"payment_method"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	ShippingAddress  string              `json:"shipping_address"`
	ShippingCity     string              `json:"shipping_city"`
	ShippingCountry  string              `json:"shipping_country"`
	PostalCode       string              `json:"shipping_postal_code"`
	ContactPhone     string              `json:"contact_phone"`
	ContactEmail     string              `json:"contact_email"`
	Items            []OrderItemResponse `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type DroppedLineResponse struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

type CheckoutResponse struct {
	Order   OrderResponse         `json:"order"`
	Dropped []DroppedLineResponse `json:"dropped_items,omitempty"`
}

type PaymentResponse struct {
	Success              bool           `json:"success"`
	TransactionID        string         `json:"transaction_id,omitempty"`
	Message              string         `json:"message,omitempty"`
	DevMode              bool           `json:"dev_mode"`
	AwaitingConfirmation bool           `json:"awaiting_confirmation,omitempty"`
	Order                *OrderResponse `json:"order,omitempty"`
}

type StatusEffectResponse struct {
	StatusChanged bool   `json:"status_changed"`
	From          string `json:"from"`
	To            string `json:"to"`
	Reason        string `json:"reason,omitempty"`
}

type DeliveryCommentResponse struct {
	ID             uint      `json:"id"`
	OrderID        uint      `json:"order_id"`
	DriverName     string    `json:"driver_name"`
	Comment        string    `json:"comment"`
	DeliveryStatus string    `json:"delivery_status"`
	Rating         *int      `json:"rating,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type InstallationCommentResponse struct {
	ID                      uint       `json:"id"`
	OrderID                 uint       `json:"order_id"`
	InstallerName           string     `json:"installer_name"`
	Comment                 string     `json:"comment"`
	InstallationStatus      string     `json:"installation_status"`
	TechnicalNotes          string     `json:"technical_notes,omitempty"`
	CompletionPercentage    int        `json:"completion_percentage"`
	EstimatedCompletionDate *time.Time `json:"estimated_completion_date,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
}

type CommentResult[T any] struct {
	Comment T                    `json:"comment"`
	Effect  StatusEffectResponse `json:"effect"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
}

type LoginResponse struct {
	Token       string       `json:"token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
	MergedLines int          `json:"merged_items"`
	FailedLines int          `json:"failed_items,omitempty"`
}

type InventoryStatsResponse struct {
	Total      int64 `json:"total_products"`
	LowStock   int64 `json:"low_stock"`
	OutOfStock int64 `json:"out_of_stock"`
	InStock    int64 `json:"in_stock"`
}

type ChatSessionResponse struct {
	Token    string                `json:"session_token"`
	Messages []ChatMessageResponse `json:"messages,omitempty"`
}

type ChatMessageResponse struct {
	ID        uint      `json:"id"`
	Message   string    `json:"message"`
	Staff     bool      `json:"is_staff"`
	System    bool      `json:"is_system"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatReplyResponse struct {
	AutoReply string `json:"auto_reply,omitempty"`
	TicketID  uint   `json:"ticket_id,omitempty"`
}

type TicketMessageResponse struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id,omitempty"`
	Message    string    `json:"message"`
	StaffReply bool      `json:"is_staff_reply"`
	CreatedAt  time.Time `json:"created_at"`
}

type TicketResponse struct {
	ID        uint                    `json:"id"`
	Subject   string                  `json:"subject"`
	Status    string                  `json:"status"`
	Priority  string                  `json:"priority"`
	Messages  []TicketMessageResponse `json:"messages"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

type InvoiceTemplateResponse struct {
	ID                  uint      `json:"id"`
	Name                string    `json:"name"`
	Type                string    `json:"template_type"`
	CompanyName         string    `json:"company_name"`
	CompanyAddress      string    `json:"company_address"`
	CompanyPhone        string    `json:"company_phone"`
	CompanyEmail        string    `json:"company_email"`
	CompanyLogoURL      string    `json:"company_logo_url,omitempty"`
	HeaderText          string    `json:"header_text,omitempty"`
	FooterText          string    `json:"footer_text,omitempty"`
	TermsConditions     string    `json:"terms_conditions,omitempty"`
	PaymentInstructions string    `json:"payment_instructions,omitempty"`
	Active              bool      `json:"active"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type PaymentRunResponse struct {
	ID      string                  `json:"id"`
	Status  string                  `json:"status"`
	Entries []WorkflowEntryResponse `json:"entries"`
}

type WorkflowEntryResponse struct {
	Status    string    `json:"status"`
	Step      string    `json:"step,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func mapCategory(c domain.Category) *CategoryResponse {
	if c.ID == 0 {
		return nil
	}
	return &CategoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description}
}

func mapProduct(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		InStock:     p.Stock > 0,
		ImageURL:    p.ImageURL,
		Featured:    p.Featured,
		Category:    mapCategory(p.Category),
	}
}

func mapProductPage(page *app.ProductPage) ProductPageResponse {
	out := ProductPageResponse{Products: make([]ProductResponse, len(page.Products)), Total: page.Total, Offset: page.Offset, Limit: page.Limit}
	for i, p := range page.Products {
		out.Products[i] = mapProduct(p)
	}
	return out
}

func mapReview(r domain.Review) ReviewResponse {
	return ReviewResponse{ID: r.ID, Username: r.Username, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt}
}

func mapProductDetail(d *app.ProductDetail) ProductDetailResponse {
	out := ProductDetailResponse{
		ProductResponse: mapProduct(*d.Product),
		AverageRating:   d.AverageRating,
		Reviews:         make([]ReviewResponse, len(d.Reviews)),
	}
	for i, r := range d.Reviews {
		out.Reviews[i] = mapReview(r)
	}
	return out
}

func mapCart(v domain.CartView) CartResponse {
	out := CartResponse{Items: make([]CartLineResponse, len(v.Lines)), Count: v.Count(), Total: v.Total.StringFixed(2)}
	for i, l := range v.Lines {
		out.Items[i] = CartLineResponse{Product: mapProduct(l.Product), Quantity: l.Quantity, Subtotal: l.Subtotal.StringFixed(2)}
	}
	return out
}

func mapOrder(o *domain.Order) OrderResponse {
	out := OrderResponse{
		ID:               o.ID,
		Status:           string(o.Status),
		Total:            o.TotalAmount.StringFixed(2),
		PaymentMethod:    string(o.PaymentMethodCode),
		PaymentReference: o.PaymentReference,
		ShippingAddress:  o.Shipping.Address,
		ShippingCity:     o.Shipping.City,
		ShippingCountry:  o.Shipping.Country,
		PostalCode:       o.Shipping.PostalCode,
		ContactPhone:     o.Contact.Phone,
		ContactEmail:     o.Contact.Email,
		Items:            make([]OrderItemResponse, len(o.Items)),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for i, it := range o.Items {
		out.Items[i] = OrderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price.StringFixed(2),
			Subtotal:    it.Subtotal().StringFixed(2),
		}
	}
	return out
}

func mapOrders(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = mapOrder(&orders[i])
	}
	return out
}

func mapEffect(e domain.StatusEffect) StatusEffectResponse {
	return StatusEffectResponse{StatusChanged: e.StatusChanged, From: string(e.From), To: string(e.To), Reason: e.Reason}
}

func mapDeliveryComment(c domain.DeliveryComment) DeliveryCommentResponse {
	return DeliveryCommentResponse{
		ID:             c.ID,
		OrderID:        c.OrderID,
		DriverName:     c.DriverName,
		Comment:        c.Comment,
		DeliveryStatus: string(c.DeliveryStatus),
		Rating:         c.Rating,
		CreatedAt:      c.CreatedAt,
	}
}

func mapInstallationComment(c domain.InstallationComment) InstallationCommentResponse {
	return InstallationCommentResponse{
		ID:                      c.ID,
		OrderID:                 c.OrderID,
		InstallerName:           c.InstallerName,
		Comment:                 c.Comment,
		InstallationStatus:      string(c.InstallationStatus),
		TechnicalNotes:          c.TechnicalNotes,
		CompletionPercentage:    c.CompletionPercentage,
		EstimatedCompletionDate: c.EstimatedCompletionDate,
		CreatedAt:               c.CreatedAt,
	}
}

func mapUser(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: string(u.Role)}
}

func mapChatMessages(msgs []domain.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = ChatMessageResponse{ID: m.ID, Message: m.Message, Staff: m.Staff, System: m.System, CreatedAt: m.CreatedAt}
	}
	return out
}

func mapTicket(t *domain.SupportTicket) TicketResponse {
	out := TicketResponse{
		ID:        t.ID,
		Subject:   t.Subject,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		Messages:  make([]TicketMessageResponse, len(t.Messages)),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	for i, m := range t.Messages {
		out.Messages[i] = TicketMessageResponse{ID: m.ID, UserID: m.UserID, Message: m.Message, StaffReply: m.StaffReply, CreatedAt: m.CreatedAt}
	}
	return out
}

func mapPaymentRuns(runs []app.PaymentRun) []PaymentRunResponse {
	out := make([]PaymentRunResponse, len(runs))
	for i, run := range runs {
		out[i] = PaymentRunResponse{
			ID:      run.ID,
			Status:  string(run.Status),
			Entries: make([]WorkflowEntryResponse, len(run.Entries)),
		}
		for j, e := range run.Entries {
			out[i].Entries[j] = WorkflowEntryResponse{
				Status:    string(e.Status),
				Step:      e.CurrentStep,
				Payload:   e.Payload,
				Errors:    e.Errors(),
				TraceID:   e.TraceID,
				UpdatedAt: e.UpdatedAt,
			}
		}
	}
	return out
}

func mapInvoiceTemplate(t domain.InvoiceTemplate) InvoiceTemplateResponse {
	return InvoiceTemplateResponse{
		ID:                  t.ID,
		Name:                t.Name,
		Type:                string(t.Type),
		CompanyName:         t.CompanyName,
		CompanyAddress:      t.CompanyAddress,
		CompanyPhone:        t.CompanyPhone,
		CompanyEmail:        t.CompanyEmail,
		CompanyLogoURL:      t.CompanyLogoURL,
		HeaderText:          t.HeaderText,
		FooterText:          t.FooterText,
		TermsConditions:     t.TermsConditions,
		PaymentInstructions: t.PaymentInstructions,
		Active:              t.Active,
		UpdatedAt:           t.UpdatedAt,
	}
}
