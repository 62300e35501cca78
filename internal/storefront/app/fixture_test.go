package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ioproxxy/mosolarweb/internal/coordinator/sagalog"
	"github.com/ioproxxy/mosolarweb/internal/pkg/cache"
	"github.com/ioproxxy/mosolarweb/internal/pkg/events"
	"github.com/ioproxxy/mosolarweb/internal/pkg/mail"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/guestcart"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/memstore"
	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type fixture struct {
	store   *memstore.Store
	guests  *guestcart.Carts
	gateway *fakeGateway
	events  *recordingPublisher
	mailer  *recordingMailer
	log     *memLog

	panel    *domain.Product
	inverter *domain.Product
	battery  *domain.Product

	customer  domain.Principal
	other     domain.Principal
	driver    domain.Principal
	installer domain.Principal
	helpdesk  domain.Principal
	admin     domain.Principal

	card  *domain.PaymentMethod
	mpesa *domain.PaymentMethod
	cash  *domain.PaymentMethod
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		store:   memstore.New(),
		guests:  guestcart.New(cache.NewMemoryCache("test"), time.Hour),
		gateway: &fakeGateway{},
		events:  &recordingPublisher{},
		mailer:  &recordingMailer{},
		log:     &memLog{},
	}

	cat := &domain.Category{Name: "Solar Panels", Slug: "solar-panels"}
	require.NoError(t, f.store.Categories().Create(ctx, cat))

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newProduct := func(name, slug string, price int64, stock int, featured bool) *domain.Product {
		created = created.Add(time.Hour)
		p := &domain.Product{
			Name:       name,
			Slug:       slug,
			Price:      decimal.NewFromInt(price),
			Stock:      stock,
			Featured:   featured,
			CategoryID: cat.ID,
			CreatedAt:  created,
			UpdatedAt:  created,
		}
		require.NoError(t, f.store.Products().Create(ctx, p))
		return p
	}
	f.panel = newProduct("Solar Panel 300W", "solar-panel-300w", 15000, 10, true)
	f.inverter = newProduct("Hybrid Inverter 3kVA", "hybrid-inverter-3kva", 23500, 5, false)
	f.battery = newProduct("Lithium Battery 100Ah", "lithium-battery-100ah", 8000, 0, false)

	newUser := func(username string, role domain.Role) domain.Principal {
		u := &domain.User{Username: username, Email: username + "@example.com", FirstName: username, Role: role, Active: true}
		require.NoError(t, f.store.Users().Create(ctx, u))
		return domain.NewPrincipal(u.ID, role)
	}
	f.customer = newUser("wanjiru", domain.RoleCustomer)
	f.other = newUser("otieno", domain.RoleCustomer)
	f.driver = newUser("kamau", domain.RoleDriver)
	f.installer = newUser("achieng", domain.RoleInstaller)
	f.helpdesk = newUser("mutua", domain.RoleHelpdesk)
	f.admin = newUser("admin", domain.RoleAdmin)

	newMethod := func(name string, code domain.PaymentMethodCode, active bool) *domain.PaymentMethod {
		m := &domain.PaymentMethod{Name: name, Code: code, IsActive: active}
		require.NoError(t, f.store.PaymentMethods().Create(ctx, m))
		return m
	}
	f.card = newMethod("Credit/Debit Card", domain.MethodCard, true)
	f.mpesa = newMethod("M-Pesa", domain.MethodMpesa, true)
	f.cash = newMethod("Cash", "cash", false)

	return f
}

func (f *fixture) carts() *app.CartService {
	return app.NewCartService(f.store, f.guests)
}

func (f *fixture) orders(policy domain.CheckoutPolicy) *app.OrderService {
	return app.NewOrderService(f.store, f.events, policy)
}

func (f *fixture) invoices() *app.InvoiceService {
	return app.NewInvoiceService(f.store, fakeRenderer{}, f.mailer)
}

func (f *fixture) payments() *app.PaymentService {
	return app.NewPaymentService(f.store, f.gateway, f.log, f.events, f.invoices())
}

func (f *fixture) comments() *app.CommentService {
	return app.NewCommentService(f.store, f.events)
}

func checkoutInput(methodID uint) app.CheckoutInput {
	return app.CheckoutInput{
		PaymentMethodID: methodID,
		Address:         "Sheikh Karume Road",
		City:            "Nairobi",
		Country:         "Kenya",
		PostalCode:      "00100",
		Phone:           "+254712345678",
		Email:           "wanjiru@example.com",
	}
}

// placeOrder fills the customer's cart and checks it out.
func (f *fixture) placeOrder(t *testing.T, p domain.Principal, method *domain.PaymentMethod, lines ...domain.CartLine) *domain.Order {
	t.Helper()
	ctx := context.Background()
	id := domain.Identity{UserID: p.UserID}
	for _, l := range lines {
		_, err := f.carts().Add(ctx, p, id, l.ProductID, l.Quantity)
		require.NoError(t, err)
	}
	res, err := f.orders(domain.PolicyDropUnavailable).Checkout(ctx, p, checkoutInput(method.ID))
	require.NoError(t, err)
	return res.Order
}

func (f *fixture) product(t *testing.T, id uint) *domain.Product {
	t.Helper()
	p, err := f.store.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) order(t *testing.T, id uint) *domain.Order {
	t.Helper()
	o, err := f.store.Orders().Get(context.Background(), id)
	require.NoError(t, err)
	return o
}

type fakeGateway struct {
	mu          sync.Mutex
	cardResult  *app.GatewayResult
	mpesaResult *app.GatewayResult
	chargeErr   error
	validateErr error
	charges     int
	refunds     []string
	lastPhone   string
}

func (g *fakeGateway) ValidateCard(app.CardDetails) error { return g.validateErr }

func (g *fakeGateway) ChargeCard(_ context.Context, _ *domain.Order, _ app.CardDetails) (app.GatewayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges++
	if g.chargeErr != nil {
		return app.GatewayResult{}, g.chargeErr
	}
	if g.cardResult != nil {
		return *g.cardResult, nil
	}
	return app.GatewayResult{Success: true, TransactionID: "CARD-1", Message: "ok"}, nil
}

func (g *fakeGateway) ChargeMobileMoney(_ context.Context, _ *domain.Order, phone string) (app.GatewayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges++
	g.lastPhone = phone
	if g.chargeErr != nil {
		return app.GatewayResult{}, g.chargeErr
	}
	if g.mpesaResult != nil {
		return *g.mpesaResult, nil
	}
	return app.GatewayResult{Success: true, TransactionID: "ws_CO_1", Message: "ok", DevMode: true}, nil
}

func (g *fakeGateway) Refund(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Name
	}
	return out
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(doc domain.InvoiceDocument) ([]byte, error) {
	return []byte("%PDF-" + doc.Number), nil
}

// memLog is an in-memory workflow log.
type memLog struct {
	mu      sync.Mutex
	entries []sagalog.Entry
}

func (l *memLog) Save(_ context.Context, e *sagalog.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *e)
	return nil
}

func (l *memLog) GetLatest(_ context.Context, sagaID string) (*sagalog.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].SagaID == sagaID {
			e := l.entries[i]
			return &e, nil
		}
	}
	return nil, errors.New("not found")
}

func (l *memLog) History(_ context.Context, sagaID string) ([]sagalog.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []sagalog.Entry
	for _, e := range l.entries {
		if e.SagaID == sagaID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memLog) SagasByPrefix(_ context.Context, prefix string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	seen := map[string]bool{}
	for i := len(l.entries) - 1; i >= 0; i-- {
		id := l.entries[i].SagaID
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func (l *memLog) statuses() []sagalog.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]sagalog.Status, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Status
	}
	return out
}

// failingStore fails UpdateStatus of orders to exercise rollback paths.
type failingStore struct {
	app.Store
	failUpdate bool
	failCreate bool
}

func (s *failingStore) WithinTx(ctx context.Context, fn func(tx app.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx app.Store) error {
		return fn(&failingStore{Store: tx, failUpdate: s.failUpdate, failCreate: s.failCreate})
	})
}

func (s *failingStore) Orders() app.OrderRepository {
	return failingOrders{OrderRepository: s.Store.Orders(), store: s}
}

type failingOrders struct {
	app.OrderRepository
	store *failingStore
}

var errInjected = errors.New("injected storage failure")

func (o failingOrders) UpdateStatus(ctx context.Context, order *domain.Order) error {
	if o.store.failUpdate {
		return errInjected
	}
	return o.OrderRepository.UpdateStatus(ctx, order)
}

func (o failingOrders) Create(ctx context.Context, order *domain.Order) error {
	if o.store.failCreate {
		return errInjected
	}
	return o.OrderRepository.Create(ctx, order)
}
