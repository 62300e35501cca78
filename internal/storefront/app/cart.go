package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

// userCart is the persisted cart of a registered user.
type userCart struct {
	repo   CartRepository
	userID uint
}

func newUserCart(repo CartRepository, userID uint) domain.Cart {
	return &userCart{repo: repo, userID: userID}
}

func (c *userCart) Lines(ctx context.Context) ([]domain.CartLine, error) {
	return c.repo.Lines(ctx, c.userID)
}

func (c *userCart) Put(ctx context.Context, productID uint, quantity int) error {
	return c.repo.Put(ctx, c.userID, productID, quantity)
}

func (c *userCart) Delete(ctx context.Context, productID uint) (bool, error) {
	return c.repo.Delete(ctx, c.userID, productID)
}

func (c *userCart) Clear(ctx context.Context) error {
	return c.repo.Clear(ctx, c.userID)
}

type CartService struct {
	store  Store
	guests GuestCarts
}

func NewCartService(store Store, guests GuestCarts) *CartService {
	return &CartService{store: store, guests: guests}
}

// Identity derives the cart identity of a request. Anonymous callers
// without a token get a fresh one.
func (s *CartService) Identity(p domain.Principal, guestToken string) domain.Identity {
	if p.Authenticated() {
		return domain.Identity{UserID: p.UserID}
	}
	if guestToken == "" {
		guestToken = s.guests.NewToken()
	}
	return domain.Identity{GuestToken: guestToken}
}

func (s *CartService) cart(store Store, id domain.Identity) domain.Cart {
	if id.Anonymous() {
		return s.guests.Cart(id.GuestToken)
	}
	return newUserCart(store.Carts(), id.UserID)
}

func (s *CartService) authorize(p domain.Principal, id domain.Identity) error {
	if !p.CanUseCart() {
		return domain.ErrPermissionDenied
	}
	if !id.Valid() {
		return domain.NewValidationError("cart session is required", "cart_session")
	}
	return nil
}

// Add puts quantity units of the product into the cart, adding to an
// existing line. Only the requested quantity is checked against stock.
func (s *CartService) Add(ctx context.Context, p domain.Principal, id domain.Identity, productID uint, quantity int) (domain.CartLine, error) {
	if err := s.authorize(p, id); err != nil {
		return domain.CartLine{}, err
	}
	if quantity < 1 {
		return domain.CartLine{}, domain.NewValidationError("quantity must be at least 1", "quantity")
	}

	var line domain.CartLine
	err := s.store.WithinTx(ctx, func(tx Store) error {
		product, err := tx.Products().Get(ctx, productID)
		if err != nil {
			return err
		}
		if !product.HasStock(quantity) {
			return &domain.OutOfStockError{ProductID: productID, Available: product.Stock, Requested: quantity}
		}

		cart := s.cart(tx, id)
		lines, err := cart.Lines(ctx)
		if err != nil {
			return err
		}
		qty := quantity
		if existing, ok := domain.FindLine(lines, productID); ok {
			qty += existing.Quantity
		}
		if err := cart.Put(ctx, productID, qty); err != nil {
			return err
		}
		line = domain.CartLine{ProductID: productID, Quantity: qty}
		return nil
	})
	return line, err
}

// Update sets the absolute quantity of an existing line. On failure the
// previous quantity is kept.
func (s *CartService) Update(ctx context.Context, p domain.Principal, id domain.Identity, productID uint, quantity int) (domain.CartLine, error) {
	if err := s.authorize(p, id); err != nil {
		return domain.CartLine{}, err
	}
	if quantity < 1 {
		return domain.CartLine{}, domain.NewValidationError("quantity must be at least 1", "quantity")
	}

	err := s.store.WithinTx(ctx, func(tx Store) error {
		cart := s.cart(tx, id)
		lines, err := cart.Lines(ctx)
		if err != nil {
			return err
		}
		if _, ok := domain.FindLine(lines, productID); !ok {
			return domain.NotFound("cart item", productID)
		}
		product, err := tx.Products().Get(ctx, productID)
		if err != nil {
			return err
		}
		if !product.HasStock(quantity) {
			return &domain.OutOfStockError{ProductID: productID, Available: product.Stock, Requested: quantity}
		}
		return cart.Put(ctx, productID, quantity)
	})
	if err != nil {
		return domain.CartLine{}, err
	}
	return domain.CartLine{ProductID: productID, Quantity: quantity}, nil
}

// Remove deletes the product's line. Removing an absent line reports
// found=false without an error.
func (s *CartService) Remove(ctx context.Context, p domain.Principal, id domain.Identity, productID uint) (bool, error) {
	if err := s.authorize(p, id); err != nil {
		return false, err
	}
	return s.cart(s.store, id).Delete(ctx, productID)
}

// View materialises the cart at current prices. Lines whose product no
// longer exists are skipped.
func (s *CartService) View(ctx context.Context, p domain.Principal, id domain.Identity) (domain.CartView, error) {
	view := domain.CartView{Total: decimal.Zero}
	if err := s.authorize(p, id); err != nil {
		return view, err
	}

	lines, err := s.cart(s.store, id).Lines(ctx)
	if err != nil {
		return view, fmt.Errorf("read cart: %w", err)
	}
	for _, l := range lines {
		product, err := s.store.Products().Get(ctx, l.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			slog.DebugContext(ctx, "skipping stale cart line", "product_id", l.ProductID)
			continue
		}
		if err != nil {
			return view, err
		}
		pl := domain.PriceLine(*product, l.Quantity)
		view.Lines = append(view.Lines, pl)
		view.Total = view.Total.Add(pl.Subtotal)
	}
	return view, nil
}

// MergeGuest moves the anonymous cart into the user's persisted cart line
// by line, then clears the anonymous cart whatever the outcome.
func (s *CartService) MergeGuest(ctx context.Context, userID uint, guestToken string) (domain.MergeReport, error) {
	if guestToken == "" || userID == 0 {
		return domain.MergeReport{}, nil
	}
	guest := s.guests.Cart(guestToken)
	defer func() {
		if err := guest.Clear(ctx); err != nil {
			slog.WarnContext(ctx, "failed to clear guest cart after merge", "user_id", userID, "error", err)
		}
	}()

	exists := func(ctx context.Context, productID uint) error {
		_, err := s.store.Products().Get(ctx, productID)
		return err
	}
	report, err := domain.MergeCarts(ctx, guest, newUserCart(s.store.Carts(), userID), exists)
	if err != nil {
		return report, err
	}
	for _, f := range report.Failed {
		slog.WarnContext(ctx, "guest cart line not merged", "user_id", userID, "product_id", f.ProductID, "error", f.Err)
	}
	return report, nil
}
