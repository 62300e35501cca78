package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type userRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	Email        string `gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:256;not null"`
	FirstName    string `gorm:"size:64"`
	LastName     string `gorm:"size:64"`
	PhoneNumber  string `gorm:"size:20"`
	Role         string `gorm:"size:20;not null;default:customer"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PhoneNumber:  r.PhoneNumber,
		Role:         domain.Role(r.Role),
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func userFromDomain(u *domain.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PhoneNumber:  u.PhoneNumber,
		Role:         string(u.Role),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type categoryRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:64;not null"`
	Description string `gorm:"type:text"`
	Slug        string `gorm:"size:64;uniqueIndex;not null"`
}

func (categoryRecord) TableName() string { return "categories" }

func (r categoryRecord) toDomain() domain.Category {
	return domain.Category{ID: r.ID, Name: r.Name, Description: r.Description, Slug: r.Slug}
}

type productRecord struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:128;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0"`
	ImageURL    string          `gorm:"size:256"`
	Slug        string          `gorm:"size:128;uniqueIndex;not null"`
	Featured    bool            `gorm:"not null;default:false"`
	CategoryID  uint            `gorm:"not null;index"`
	Category    categoryRecord  `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (productRecord) TableName() string { return "products" }

func (r productRecord) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		ImageURL:    r.ImageURL,
		Slug:        r.Slug,
		Featured:    r.Featured,
		CategoryID:  r.CategoryID,
		Category:    r.Category.toDomain(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type cartItemRecord struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_cart_user_product"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int  `gorm:"not null"`
	CreatedAt time.Time
}

func (cartItemRecord) TableName() string { return "cart_items" }

type paymentMethodRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"size:64;not null"`
	Code     string `gorm:"size:20;uniqueIndex;not null"`
	IsActive bool   `gorm:"not null;default:true"`
}

func (paymentMethodRecord) TableName() string { return "payment_methods" }

func (r paymentMethodRecord) toDomain() *domain.PaymentMethod {
	return &domain.PaymentMethod{ID: r.ID, Name: r.Name, Code: domain.PaymentMethodCode(r.Code), IsActive: r.IsActive}
}

type orderRecord struct {
	ID                 uint              `gorm:"primaryKey"`
	UserID             uint              `gorm:"not null;index"`
	PaymentMethodID    uint              `gorm:"not null"`
	PaymentMethodCode  string            `gorm:"size:20"`
	Status             string            `gorm:"size:20;not null;index;default:pending"`
	TotalAmount        decimal.Decimal   `gorm:"type:numeric(12,2);not null"`
	ShippingAddress    string            `gorm:"size:256;not null"`
	ShippingCity       string            `gorm:"size:64;not null"`
	ShippingCountry    string            `gorm:"size:64;not null"`
	ShippingPostalCode string            `gorm:"size:20;not null"`
	ContactPhone       string            `gorm:"size:20;not null"`
	ContactEmail       string            `gorm:"size:120;not null"`
	PaymentReference   string            `gorm:"size:128;index"`
	Items              []orderItemRecord `gorm:"foreignKey:OrderID"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID          uint            `gorm:"primaryKey"`
	OrderID     uint            `gorm:"not null;index"`
	ProductID   uint            `gorm:"not null"`
	ProductName string          `gorm:"size:128"`
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// paymentReferenceRecord keeps every asynchronous gateway reference issued
// for an order.
type paymentReferenceRecord struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   uint   `gorm:"not null;index"`
	Reference string `gorm:"size:128;not null;uniqueIndex"`
	CreatedAt time.Time
}

func (paymentReferenceRecord) TableName() string { return "payment_references" }

func (r orderRecord) toDomain() *domain.Order {
	o := &domain.Order{
		ID:                r.ID,
		UserID:            r.UserID,
		PaymentMethodID:   r.PaymentMethodID,
		PaymentMethodCode: domain.PaymentMethodCode(r.PaymentMethodCode),
		Status:            domain.OrderStatus(r.Status),
		TotalAmount:       r.TotalAmount,
		Shipping: domain.ShippingAddress{
			Address:    r.ShippingAddress,
			City:       r.ShippingCity,
			Country:    r.ShippingCountry,
			PostalCode: r.ShippingPostalCode,
		},
		Contact:          domain.Contact{Phone: r.ContactPhone, Email: r.ContactEmail},
		PaymentReference: r.PaymentReference,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	for _, it := range r.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ID:          it.ID,
			OrderID:     it.OrderID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	return o
}

func orderFromDomain(o *domain.Order) orderRecord {
	r := orderRecord{
		ID:                 o.ID,
		UserID:             o.UserID,
		PaymentMethodID:    o.PaymentMethodID,
		PaymentMethodCode:  string(o.PaymentMethodCode),
		Status:             string(o.Status),
		TotalAmount:        o.TotalAmount,
		ShippingAddress:    o.Shipping.Address,
		ShippingCity:       o.Shipping.City,
		ShippingCountry:    o.Shipping.Country,
		ShippingPostalCode: o.Shipping.PostalCode,
		ContactPhone:       o.Contact.Phone,
		ContactEmail:       o.Contact.Email,
		PaymentReference:   o.PaymentReference,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	for _, it := range o.Items {
		r.Items = append(r.Items, orderItemRecord{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	return r
}

type deliveryCommentRecord struct {
	ID             uint   `gorm:"primaryKey"`
	OrderID        uint   `gorm:"not null;index"`
	DriverID       uint   `gorm:"not null"`
	DriverName     string `gorm:"size:64"`
	Comment        string `gorm:"type:text;not null"`
	DeliveryStatus string `gorm:"size:20;not null"`
	Rating         *int
	CreatedAt      time.Time
}

func (deliveryCommentRecord) TableName() string { return "delivery_comments" }

func (r deliveryCommentRecord) toDomain() domain.DeliveryComment {
	return domain.DeliveryComment{
		ID:             r.ID,
		OrderID:        r.OrderID,
		DriverID:       r.DriverID,
		DriverName:     r.DriverName,
		Comment:        r.Comment,
		DeliveryStatus: domain.DeliveryStatus(r.DeliveryStatus),
		Rating:         r.Rating,
		CreatedAt:      r.CreatedAt,
	}
}

type installationCommentRecord struct {
	ID                      uint   `gorm:"primaryKey"`
	OrderID                 uint   `gorm:"not null;index"`
	InstallerID             uint   `gorm:"not null"`
	InstallerName           string `gorm:"size:64"`
	Comment                 string `gorm:"type:text;not null"`
	InstallationStatus      string `gorm:"size:20;not null"`
	TechnicalNotes          string `gorm:"type:text"`
	CompletionPercentage    int    `gorm:"not null;default:0"`
	EstimatedCompletionDate *time.Time
	CreatedAt               time.Time
}

func (installationCommentRecord) TableName() string { return "installation_comments" }

func (r installationCommentRecord) toDomain() domain.InstallationComment {
	return domain.InstallationComment{
		ID:                      r.ID,
		OrderID:                 r.OrderID,
		InstallerID:             r.InstallerID,
		InstallerName:           r.InstallerName,
		Comment:                 r.Comment,
		InstallationStatus:      domain.InstallationStatus(r.InstallationStatus),
		TechnicalNotes:          r.TechnicalNotes,
		CompletionPercentage:    r.CompletionPercentage,
		EstimatedCompletionDate: r.EstimatedCompletionDate,
		CreatedAt:               r.CreatedAt,
	}
}

type reviewRecord struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"not null;uniqueIndex:idx_review_user_product"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_review_user_product"`
	Rating    int    `gorm:"not null"`
	Comment   string `gorm:"type:text"`
	CreatedAt time.Time
}

func (reviewRecord) TableName() string { return "reviews" }

type chatSessionRecord struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	Token     string `gorm:"size:64;uniqueIndex;not null"`
	Active    bool   `gorm:"not null;default:true"`
	TicketID  uint
	CreatedAt time.Time
	EndedAt   *time.Time
}

func (chatSessionRecord) TableName() string { return "chat_sessions" }

func (r chatSessionRecord) toDomain() *domain.ChatSession {
	return &domain.ChatSession{
		ID:        r.ID,
		UserID:    r.UserID,
		Token:     r.Token,
		Active:    r.Active,
		TicketID:  r.TicketID,
		CreatedAt: r.CreatedAt,
		EndedAt:   r.EndedAt,
	}
}

func chatSessionFromDomain(s *domain.ChatSession) chatSessionRecord {
	return chatSessionRecord{
		ID:        s.ID,
		UserID:    s.UserID,
		Token:     s.Token,
		Active:    s.Active,
		TicketID:  s.TicketID,
		CreatedAt: s.CreatedAt,
		EndedAt:   s.EndedAt,
	}
}

type chatMessageRecord struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID uint   `gorm:"not null;index"`
	UserID    uint
	Message   string `gorm:"type:text;not null"`
	Staff     bool   `gorm:"not null;default:false"`
	System    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (chatMessageRecord) TableName() string { return "chat_messages" }

type ticketRecord struct {
	ID        uint                  `gorm:"primaryKey"`
	UserID    uint                  `gorm:"index"`
	Subject   string                `gorm:"size:200;not null"`
	Status    string                `gorm:"size:20;not null;default:open"`
	Priority  string                `gorm:"size:20;not null;default:medium"`
	Messages  []ticketMessageRecord `gorm:"foreignKey:TicketID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ticketRecord) TableName() string { return "support_tickets" }

type ticketMessageRecord struct {
	ID         uint   `gorm:"primaryKey"`
	TicketID   uint   `gorm:"not null;index"`
	UserID     uint
	Message    string `gorm:"type:text;not null"`
	StaffReply bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

func (ticketMessageRecord) TableName() string { return "ticket_messages" }

func (r ticketMessageRecord) toDomain() domain.TicketMessage {
	return domain.TicketMessage{
		ID:         r.ID,
		TicketID:   r.TicketID,
		UserID:     r.UserID,
		Message:    r.Message,
		StaffReply: r.StaffReply,
		CreatedAt:  r.CreatedAt,
	}
}

func (r ticketRecord) toDomain() domain.SupportTicket {
	t := domain.SupportTicket{
		ID:        r.ID,
		UserID:    r.UserID,
		Subject:   r.Subject,
		Status:    domain.TicketStatus(r.Status),
		Priority:  domain.TicketPriority(r.Priority),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for _, m := range r.Messages {
		t.Messages = append(t.Messages, m.toDomain())
	}
	return t
}

type invoiceTemplateRecord struct {
	ID                  uint   `gorm:"primaryKey"`
	Name                string `gorm:"size:100;not null"`
	Type                string `gorm:"size:20;not null;index"`
	CompanyName         string `gorm:"size:100"`
	CompanyAddress      string `gorm:"type:text"`
	CompanyPhone        string `gorm:"size:20"`
	CompanyEmail        string `gorm:"size:120"`
	CompanyLogoURL      string `gorm:"size:256"`
	HeaderText          string `gorm:"type:text"`
	FooterText          string `gorm:"type:text"`
	TermsConditions     string `gorm:"type:text"`
	PaymentInstructions string `gorm:"type:text"`
	Active              bool   `gorm:"not null;default:true"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (invoiceTemplateRecord) TableName() string { return "invoice_templates" }

func (r invoiceTemplateRecord) toDomain() *domain.InvoiceTemplate {
	return &domain.InvoiceTemplate{
		ID:                  r.ID,
		Name:                r.Name,
		Type:                domain.TemplateType(r.Type),
		CompanyName:         r.CompanyName,
		CompanyAddress:      r.CompanyAddress,
		CompanyPhone:        r.CompanyPhone,
		CompanyEmail:        r.CompanyEmail,
		CompanyLogoURL:      r.CompanyLogoURL,
		HeaderText:          r.HeaderText,
		FooterText:          r.FooterText,
		TermsConditions:     r.TermsConditions,
		PaymentInstructions: r.PaymentInstructions,
		Active:              r.Active,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func invoiceTemplateFromDomain(t *domain.InvoiceTemplate) invoiceTemplateRecord {
	return invoiceTemplateRecord{
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
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

// models lists every table for AutoMigrate, parents first.
var models = []any{
	&userRecord{},
	&categoryRecord{},
	&productRecord{},
	&cartItemRecord{},
	&paymentMethodRecord{},
	&orderRecord{},
	&orderItemRecord{},
	&paymentReferenceRecord{},
	&deliveryCommentRecord{},
	&installationCommentRecord{},
	&reviewRecord{},
	&ticketRecord{},
	&ticketMessageRecord{},
	&chatSessionRecord{},
	&chatMessageRecord{},
	&invoiceTemplateRecord{},
}
