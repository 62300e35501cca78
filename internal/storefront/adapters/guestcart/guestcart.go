// Package guestcart keeps anonymous carts in the key-value cache, one JSON
// document per session token.
package guestcart

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ioproxxy/mosolarweb/internal/pkg/cache"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

const DefaultTTL = 7 * 24 * time.Hour

type Carts struct {
	cache cache.Cache
	ttl   time.Duration
}

func New(c cache.Cache, ttl time.Duration) *Carts {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Carts{cache: c, ttl: ttl}
}

func (c *Carts) NewToken() string { return uuid.NewString() }

func (c *Carts) Cart(token string) domain.Cart {
	return &cart{cache: c.cache, key: c.cache.GenerateKey("guest_cart", token), ttl: c.ttl}
}

type cart struct {
	cache cache.Cache
	key   string
	ttl   time.Duration
}

func (c *cart) Lines(ctx context.Context) ([]domain.CartLine, error) {
	raw, err := c.cache.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("guest cart: read: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("guest cart: decode: %w", err)
	}
	return lines, nil
}

func (c *cart) save(ctx context.Context, lines []domain.CartLine) error {
	if len(lines) == 0 {
		return c.Clear(ctx)
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	// Every write renews the expiry.
	if err := c.cache.Set(ctx, c.key, data, c.ttl); err != nil {
		return fmt.Errorf("guest cart: write: %w", err)
	}
	return nil
}

func (c *cart) Put(ctx context.Context, productID uint, quantity int) error {
	lines, err := c.Lines(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(lines, func(l domain.CartLine) bool { return l.ProductID == productID })
	if idx >= 0 {
		lines[idx].Quantity = quantity
	} else {
		lines = append(lines, domain.CartLine{ProductID: productID, Quantity: quantity})
	}
	return c.save(ctx, lines)
}

func (c *cart) Delete(ctx context.Context, productID uint) (bool, error) {
	lines, err := c.Lines(ctx)
	if err != nil {
		return false, err
	}
	idx := slices.IndexFunc(lines, func(l domain.CartLine) bool { return l.ProductID == productID })
	if idx < 0 {
		return false, nil
	}
	return true, c.save(ctx, slices.Delete(lines, idx, idx+1))
}

func (c *cart) Clear(ctx context.Context) error {
	return c.cache.Delete(ctx, c.key)
}
