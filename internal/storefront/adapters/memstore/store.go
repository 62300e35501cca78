// Package memstore is an in-process implementation of the storefront
// store. Transactions work on a copy of the whole state that replaces the
// original on commit.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type state struct {
	seq            uint
	products       map[uint]domain.Product
	categories     map[uint]domain.Category
	carts          map[uint][]domain.CartLine
	orders         map[uint]domain.Order
	paymentRefs    map[string]uint
	methods        map[uint]domain.PaymentMethod
	deliveries     []domain.DeliveryComment
	installations  []domain.InstallationComment
	reviews        []domain.Review
	users          map[uint]domain.User
	sessions       map[uint]domain.ChatSession
	chatMessages   []domain.ChatMessage
	tickets        map[uint]domain.SupportTicket
	ticketMessages []domain.TicketMessage
	templates      map[uint]domain.InvoiceTemplate
}

func newState() *state {
	return &state{
		products:    map[uint]domain.Product{},
		categories:  map[uint]domain.Category{},
		carts:       map[uint][]domain.CartLine{},
		orders:      map[uint]domain.Order{},
		paymentRefs: map[string]uint{},
		methods:     map[uint]domain.PaymentMethod{},
		users:       map[uint]domain.User{},
		sessions:    map[uint]domain.ChatSession{},
		tickets:     map[uint]domain.SupportTicket{},
		templates:   map[uint]domain.InvoiceTemplate{},
	}
}

func (s *state) nextID() uint {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := &state{
		seq:            s.seq,
		products:       maps.Clone(s.products),
		categories:     maps.Clone(s.categories),
		carts:          make(map[uint][]domain.CartLine, len(s.carts)),
		orders:         make(map[uint]domain.Order, len(s.orders)),
		paymentRefs:    maps.Clone(s.paymentRefs),
		methods:        maps.Clone(s.methods),
		deliveries:     slices.Clone(s.deliveries),
		installations:  slices.Clone(s.installations),
		reviews:        slices.Clone(s.reviews),
		users:          maps.Clone(s.users),
		sessions:       maps.Clone(s.sessions),
		chatMessages:   slices.Clone(s.chatMessages),
		tickets:        maps.Clone(s.tickets),
		ticketMessages: slices.Clone(s.ticketMessages),
		templates:      maps.Clone(s.templates),
	}
	for k, v := range s.carts {
		c.carts[k] = slices.Clone(v)
	}
	for k, v := range s.orders {
		v.Items = slices.Clone(v.Items)
		c.orders[k] = v
	}
	return c
}

// Store is safe for concurrent use. WithinTx serialises with every other
// operation.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

var _ app.Store = (*Store)(nil)

func New() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

func (s *Store) with(fn func(st *state) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.st)
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx app.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &Store{mu: s.mu, st: s.st.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) Products() app.ProductRepository                 { return productRepo{s} }
func (s *Store) Categories() app.CategoryRepository              { return categoryRepo{s} }
func (s *Store) Carts() app.CartRepository                       { return cartRepo{s} }
func (s *Store) Orders() app.OrderRepository                     { return orderRepo{s} }
func (s *Store) PaymentMethods() app.PaymentMethodRepository     { return methodRepo{s} }
func (s *Store) Comments() app.CommentRepository                 { return commentRepo{s} }
func (s *Store) Reviews() app.ReviewRepository                   { return reviewRepo{s} }
func (s *Store) Users() app.UserRepository                       { return userRepo{s} }
func (s *Store) Support() app.SupportRepository                  { return supportRepo{s} }
func (s *Store) InvoiceTemplates() app.InvoiceTemplateRepository { return templateRepo{s} }

// newestFirst orders by creation time, then id, descending.
func newestFirst[T any](items []T, key func(T) (int64, uint)) {
	slices.SortStableFunc(items, func(a, b T) int {
		ta, ia := key(a)
		tb, ib := key(b)
		switch {
		case ta != tb:
			if ta > tb {
				return -1
			}
			return 1
		case ia > ib:
			return -1
		case ia < ib:
			return 1
		}
		return 0
	})
}
