package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

type ProductPage struct {
	Products []domain.Product
	Total    int64
	Offset   int
	Limit    int
}

type ProductDetail struct {
	Product       *domain.Product
	Reviews       []domain.Review
	AverageRating float64
}

type NewProductInput struct {
	Name        string          `json:"name" validate:"required,max=128"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,max=256"`
	Featured    bool            `json:"featured"`
	CategoryID  uint            `json:"category_id" validate:"required"`
}

// UpdateProductInput replaces every editable field. An empty Slug keeps the
// current one unless the name changes, in which case a new one is derived.
type UpdateProductInput struct {
	NewProductInput
	Slug string `json:"slug" validate:"omitempty,max=128"`
}

type CatalogService struct {
	store Store
	now   func() time.Time
}

func NewCatalogService(store Store) *CatalogService {
	return &CatalogService{store: store, now: time.Now}
}

// ClampPage bounds a requested page to 1..MaxPageSize items.
func ClampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return offset, limit
}

func (s *CatalogService) ListProducts(ctx context.Context, f domain.ProductFilter, offset, limit int) (*ProductPage, error) {
	offset, limit = ClampPage(offset, limit)
	products, total, err := s.store.Products().List(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: products, Total: total, Offset: offset, Limit: limit}, nil
}

func (s *CatalogService) ProductBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	p, err := s.store.Products().GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	reviews, err := s.store.Reviews().ListByProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{Product: p, Reviews: reviews, AverageRating: domain.AverageRating(reviews)}, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.store.Categories().List(ctx)
}

// CreateProduct adds a product with a slug derived from its name, made
// unique with a numeric suffix.
func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Principal, in NewProductInput) (*domain.Product, error) {
	if err := p.Require(domain.CapManageInventory); err != nil {
		return nil, err
	}
	if err := validateInput(in, "invalid product"); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, domain.NewValidationError("price must be positive", "price")
	}

	var product *domain.Product
	err := s.store.WithinTx(ctx, func(tx Store) error {
		sl, err := uniqueSlug(ctx, tx.Products(), in.Name)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		product = &domain.Product{
			Name:        in.Name,
			Description: in.Description,
			Price:       in.Price,
			Stock:       in.Stock,
			ImageURL:    in.ImageURL,
			Slug:        sl,
			Featured:    in.Featured,
			CategoryID:  in.CategoryID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Products().Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "product created", "product_id", product.ID, "slug", product.Slug)
	return product, nil
}

// UpdateProduct edits a product. Orders keep the prices they were placed
// at; carts follow the new price.
func (s *CatalogService) UpdateProduct(ctx context.Context, p domain.Principal, productID uint, in UpdateProductInput) (*domain.Product, error) {
	if err := p.Require(domain.CapManageInventory); err != nil {
		return nil, err
	}
	if err := validateInput(in, "invalid product"); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, domain.NewValidationError("price must be positive", "price")
	}

	var product *domain.Product
	err := s.store.WithinTx(ctx, func(tx Store) error {
		var err error
		product, err = tx.Products().Get(ctx, productID)
		if err != nil {
			return err
		}
		sl, err := s.nextSlug(ctx, tx.Products(), product, in)
		if err != nil {
			return err
		}
		product.Name = in.Name
		product.Description = in.Description
		product.Price = in.Price
		product.Stock = in.Stock
		product.ImageURL = in.ImageURL
		product.Featured = in.Featured
		product.CategoryID = in.CategoryID
		product.Slug = sl
		product.UpdatedAt = s.now().UTC()
		return tx.Products().Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "product updated", "product_id", product.ID, "slug", product.Slug, "price", product.Price.StringFixed(2))
	return product, nil
}

func (s *CatalogService) nextSlug(ctx context.Context, repo ProductRepository, current *domain.Product, in UpdateProductInput) (string, error) {
	if in.Slug == "" {
		if in.Name == current.Name {
			return current.Slug, nil
		}
		return uniqueSlug(ctx, repo, in.Name)
	}
	sl := slug.Make(in.Slug)
	if sl == "" {
		return "", domain.NewValidationError("slug is not usable", "slug")
	}
	if sl == current.Slug {
		return sl, nil
	}
	taken, err := repo.SlugExists(ctx, sl)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("%w: slug %q is used by another product", domain.ErrConflict, sl)
	}
	return sl, nil
}

// DeleteProduct removes a product that no order refers to, together with
// its cart lines and reviews. Anonymous carts drop the line when next read.
func (s *CatalogService) DeleteProduct(ctx context.Context, p domain.Principal, productID uint) error {
	if err := p.Require(domain.CapManageInventory); err != nil {
		return err
	}
	err := s.store.WithinTx(ctx, func(tx Store) error {
		if _, err := tx.Products().Get(ctx, productID); err != nil {
			return err
		}
		ordered, err := tx.Orders().ContainsProduct(ctx, productID)
		if err != nil {
			return err
		}
		if ordered {
			return fmt.Errorf("%w: product %d has been ordered, set its stock to zero instead", domain.ErrConflict, productID)
		}
		if err := tx.Carts().RemoveProduct(ctx, productID); err != nil {
			return err
		}
		if err := tx.Reviews().DeleteByProduct(ctx, productID); err != nil {
			return err
		}
		return tx.Products().Delete(ctx, productID)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "product deleted", "product_id", productID)
	return nil
}

func uniqueSlug(ctx context.Context, repo ProductRepository, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		return "", domain.NewValidationError("name does not produce a usable slug", "name")
	}
	candidate := base
	for i := 1; ; i++ {
		taken, err := repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// UpdateStock applies an inventory adjustment, flooring the level at zero.
func (s *CatalogService) UpdateStock(ctx context.Context, p domain.Principal, productID uint, action domain.StockAction, qty int) (*domain.Product, error) {
	if err := p.Require(domain.CapManageInventory); err != nil {
		return nil, err
	}
	if qty < 0 {
		return nil, domain.NewValidationError("quantity must not be negative", "quantity")
	}

	var product *domain.Product
	err := s.store.WithinTx(ctx, func(tx Store) error {
		var err error
		product, err = tx.Products().Get(ctx, productID)
		if err != nil {
			return err
		}
		next, err := domain.ApplyStock(product.Stock, action, qty)
		if err != nil {
			return err
		}
		if err := tx.Products().SetStock(ctx, productID, next); err != nil {
			return err
		}
		slog.InfoContext(ctx, "stock updated", "product_id", productID, "action", action, "from", product.Stock, "to", next)
		product.Stock = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) InventoryStats(ctx context.Context, p domain.Principal) (domain.InventoryStats, error) {
	if err := p.Require(domain.CapManageInventory); err != nil {
		return domain.InventoryStats{}, err
	}
	return s.store.Products().Stats(ctx, domain.LowStockThreshold)
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// SubmitReview creates or replaces the caller's review of a product.
func (s *CatalogService) SubmitReview(ctx context.Context, p domain.Principal, productID uint, in ReviewInput) (*domain.Review, bool, error) {
	if !p.Authenticated() {
		return nil, false, domain.ErrPermissionDenied
	}
	if err := validateInput(in, "invalid review"); err != nil {
		return nil, false, err
	}
	if _, err := s.store.Products().Get(ctx, productID); err != nil {
		return nil, false, err
	}
	r := &domain.Review{
		ProductID: productID,
		UserID:    p.UserID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: s.now().UTC(),
	}
	created, err := s.store.Reviews().Upsert(ctx, r)
	if err != nil {
		return nil, false, err
	}
	return r, created, nil
}
