package app

import (
	"context"
	"time"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

// Store is the unit of work over every repository. Repositories obtained
// from the tx passed to WithinTx take part in that transaction; fn returning
// an error rolls all of it back.
type Store interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Carts() CartRepository
	Orders() OrderRepository
	PaymentMethods() PaymentMethodRepository
	Comments() CommentRepository
	Reviews() ReviewRepository
	Users() UserRepository
	Support() SupportRepository
	InvoiceTemplates() InvoiceTemplateRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type ProductRepository interface {
	Get(ctx context.Context, id uint) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	// List returns one page of products, newest first, and the total count.
	List(ctx context.Context, f domain.ProductFilter, offset, limit int) ([]domain.Product, int64, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, p *domain.Product) error
	// Update stores every editable field of p, stock included.
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id uint) error
	SetStock(ctx context.Context, id uint, stock int) error
	// DecrementStock debits qty only while stock >= qty, otherwise it
	// returns *domain.OutOfStockError.
	DecrementStock(ctx context.Context, id uint, qty int) error
	IncrementStock(ctx context.Context, id uint, qty int) error
	Stats(ctx context.Context, lowStock int) (domain.InventoryStats, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
}

// CartRepository holds the persisted carts of registered users.
type CartRepository interface {
	Lines(ctx context.Context, userID uint) ([]domain.CartLine, error)
	Put(ctx context.Context, userID, productID uint, qty int) error
	Delete(ctx context.Context, userID, productID uint) (bool, error)
	Clear(ctx context.Context, userID uint) error
	// RemoveProduct drops the product from every persisted cart.
	RemoveProduct(ctx context.Context, productID uint) error
}

type OrderRepository interface {
	// Create inserts the header and its items and assigns their ids.
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id uint) (*domain.Order, error)
	// GetByPaymentReference matches the order's current reference or any
	// reference recorded with AddPaymentReference.
	GetByPaymentReference(ctx context.Context, ref string) (*domain.Order, error)
	// AddPaymentReference remembers a gateway reference issued for an order
	// so a late confirmation still finds it after a newer attempt.
	AddPaymentReference(ctx context.Context, orderID uint, ref string) error
	ListByUser(ctx context.Context, userID uint) ([]domain.Order, error)
	// ListByStatus lists orders in any of statuses, every order when empty.
	ListByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error)
	// UpdateStatus persists status and payment reference.
	UpdateStatus(ctx context.Context, o *domain.Order) error
	// Delete removes the order with its items and comments.
	Delete(ctx context.Context, id uint) error
	// ContainsProduct reports whether any order has an item of the product.
	ContainsProduct(ctx context.Context, productID uint) (bool, error)
}

type PaymentMethodRepository interface {
	Get(ctx context.Context, id uint) (*domain.PaymentMethod, error)
	GetByCode(ctx context.Context, code domain.PaymentMethodCode) (*domain.PaymentMethod, error)
	ListActive(ctx context.Context) ([]domain.PaymentMethod, error)
	Create(ctx context.Context, m *domain.PaymentMethod) error
}

// CommentRepository is append-only; lists are newest first.
type CommentRepository interface {
	AddDelivery(ctx context.Context, c *domain.DeliveryComment) error
	AddInstallation(ctx context.Context, c *domain.InstallationComment) error
	ListDelivery(ctx context.Context, orderID uint) ([]domain.DeliveryComment, error)
	ListInstallation(ctx context.Context, orderID uint) ([]domain.InstallationComment, error)
}

type ReviewRepository interface {
	// Upsert inserts or updates the (user, product) review.
	Upsert(ctx context.Context, r *domain.Review) (created bool, err error)
	ListByProduct(ctx context.Context, productID uint) ([]domain.Review, error)
	DeleteByProduct(ctx context.Context, productID uint) error
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id uint) (*domain.User, error)
	// GetByLogin matches either the username or the e-mail.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
}

type SupportRepository interface {
	CreateSession(ctx context.Context, s *domain.ChatSession) error
	GetSession(ctx context.Context, token string) (*domain.ChatSession, error)
	UpdateSession(ctx context.Context, s *domain.ChatSession) error
	AddChatMessage(ctx context.Context, m *domain.ChatMessage) error
	ListChatMessages(ctx context.Context, sessionID uint) ([]domain.ChatMessage, error)
	CreateTicket(ctx context.Context, t *domain.SupportTicket) error
	GetTicket(ctx context.Context, id uint) (*domain.SupportTicket, error)
	UpdateTicket(ctx context.Context, t *domain.SupportTicket) error
	// ListTickets lists the tickets of userID, or all tickets for 0.
	ListTickets(ctx context.Context, userID uint) ([]domain.SupportTicket, error)
	AddTicketMessage(ctx context.Context, m *domain.TicketMessage) error
}

type InvoiceTemplateRepository interface {
	Active(ctx context.Context, t domain.TemplateType) (*domain.InvoiceTemplate, error)
	Get(ctx context.Context, id uint) (*domain.InvoiceTemplate, error)
	// List returns every template, newest first.
	List(ctx context.Context) ([]domain.InvoiceTemplate, error)
	Save(ctx context.Context, t *domain.InvoiceTemplate) error
}

// GuestCarts hands out anonymous carts keyed by a session token.
type GuestCarts interface {
	Cart(token string) domain.Cart
	NewToken() string
}

type CardDetails struct {
	Number string
	Expiry string
	CVV    string
	Holder string
}

// GatewayResult is a charge outcome. A decline is a result, not an error.
type GatewayResult struct {
	Success       bool
	TransactionID string
	Message       string
	DevMode       bool
}

type PaymentGateway interface {
	// ValidateCard returns a *domain.ValidationError naming the bad fields.
	ValidateCard(card CardDetails) error
	ChargeCard(ctx context.Context, order *domain.Order, card CardDetails) (GatewayResult, error)
	ChargeMobileMoney(ctx context.Context, order *domain.Order, phone string) (GatewayResult, error)
	Refund(ctx context.Context, transactionID string) error
}

type InvoiceRenderer interface {
	Render(doc domain.InvoiceDocument) ([]byte, error)
}

type TokenIssuer interface {
	Issue(user *domain.User) (token string, expiresAt time.Time, err error)
}
