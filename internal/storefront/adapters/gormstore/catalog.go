package gormstore

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type productRepo struct{ db *gorm.DB }

func (r productRepo) Get(ctx context.Context, id uint) (*domain.Product, error) {
	var rec productRecord
	if err := r.db.WithContext(ctx).Preload("Category").First(&rec, id).Error; err != nil {
		return nil, translate(err, "product", id)
	}
	p := rec.toDomain()
	return &p, nil
}

func (r productRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var rec productRecord
	if err := r.db.WithContext(ctx).Preload("Category").Where("slug = ?", slug).First(&rec).Error; err != nil {
		return nil, translate(err, "product", slug)
	}
	p := rec.toDomain()
	return &p, nil
}

func (r productRepo) List(ctx context.Context, f domain.ProductFilter, offset, limit int) ([]domain.Product, int64, error) {
	var (
		recs  []productRecord
		total int64
	)

	query := r.db.WithContext(ctx).Model(&productRecord{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Preload("Category")

	if f.CategorySlug != "" {
		query = query.Where("categories.slug = ?", f.CategorySlug)
	}
	if f.FeaturedOnly {
		query = query.Where("products.featured = ?", true)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "products", "count")
	}
	if err := query.Order("products.created_at DESC, products.id DESC").Offset(offset).Limit(limit).Find(&recs).Error; err != nil {
		return nil, 0, translate(err, "products", "list")
	}

	out := make([]domain.Product, len(recs))
	for i, rec := range recs {
		out[i] = rec.toDomain()
	}
	return out, total, nil
}

func (r productRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&productRecord{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, translate(err, "product", slug)
	}
	return n > 0, nil
}

func (r productRepo) Create(ctx context.Context, p *domain.Product) error {
	rec := productRecord{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Slug:        p.Slug,
		Featured:    p.Featured,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Omit("Category").Create(&rec).Error; err != nil {
		return translate(err, "product", p.Slug)
	}
	p.ID = rec.ID
	return nil
}

func (r productRepo) Update(ctx context.Context, p *domain.Product) error {
	res := r.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"stock":       max(p.Stock, 0),
		"image_url":   p.ImageURL,
		"slug":        p.Slug,
		"featured":    p.Featured,
		"category_id": p.CategoryID,
		"updated_at":  p.UpdatedAt,
	})
	if res.Error != nil {
		return translate(res.Error, "product", p.Slug)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("product", p.ID)
	}
	return nil
}

func (r productRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&productRecord{}, id)
	if res.Error != nil {
		return translate(res.Error, "product", id)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("product", id)
	}
	return nil
}

func (r productRepo) SetStock(ctx context.Context, id uint, stock int) error {
	res := r.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", id).Update("stock", max(stock, 0))
	if res.Error != nil {
		return translate(res.Error, "product", id)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("product", id)
	}
	return nil
}

// DecrementStock is a conditional update, so concurrent checkouts can never
// drive stock below zero.
func (r productRepo) DecrementStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&productRecord{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return translate(res.Error, "product", id)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return &domain.OutOfStockError{ProductID: id, Available: p.Stock, Requested: qty}
}

func (r productRepo) IncrementStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&productRecord{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return translate(res.Error, "product", id)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("product", id)
	}
	return nil
}

func (r productRepo) Stats(ctx context.Context, lowStock int) (domain.InventoryStats, error) {
	var stats domain.InventoryStats
	q := func() *gorm.DB { return r.db.WithContext(ctx).Model(&productRecord{}) }

	if err := q().Count(&stats.Total).Error; err != nil {
		return stats, translate(err, "products", "stats")
	}
	if err := q().Where("stock = 0").Count(&stats.OutOfStock).Error; err != nil {
		return stats, translate(err, "products", "stats")
	}
	if err := q().Where("stock > 0 AND stock <= ?", lowStock).Count(&stats.LowStock).Error; err != nil {
		return stats, translate(err, "products", "stats")
	}
	stats.InStock = stats.Total - stats.OutOfStock
	return stats, nil
}

type categoryRepo struct{ db *gorm.DB }

func (r categoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var recs []categoryRecord
	if err := r.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, translate(err, "categories", "list")
	}
	out := make([]domain.Category, len(recs))
	for i, rec := range recs {
		out[i] = rec.toDomain()
	}
	return out, nil
}

func (r categoryRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var rec categoryRecord
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&rec).Error; err != nil {
		return nil, translate(err, "category", slug)
	}
	c := rec.toDomain()
	return &c, nil
}

func (r categoryRepo) Create(ctx context.Context, c *domain.Category) error {
	rec := categoryRecord{Name: c.Name, Description: c.Description, Slug: c.Slug}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "category", c.Slug)
	}
	c.ID = rec.ID
	return nil
}

type reviewRepo struct{ db *gorm.DB }

func (r reviewRepo) Upsert(ctx context.Context, rv *domain.Review) (bool, error) {
	var rec reviewRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", rv.UserID, rv.ProductID).
		First(&rec).Error

	created := false
	switch {
	case err == nil:
		rec.Rating = rv.Rating
		rec.Comment = rv.Comment
		err = r.db.WithContext(ctx).Save(&rec).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = reviewRecord{ProductID: rv.ProductID, UserID: rv.UserID, Rating: rv.Rating, Comment: rv.Comment, CreatedAt: rv.CreatedAt}
		err = r.db.WithContext(ctx).Create(&rec).Error
		created = true
	}
	if err != nil {
		return false, translate(err, "review", rv.ProductID)
	}
	rv.ID = rec.ID
	rv.CreatedAt = rec.CreatedAt
	return created, nil
}

func (r reviewRepo) DeleteByProduct(ctx context.Context, productID uint) error {
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&reviewRecord{}).Error
	return translate(err, "reviews", productID)
}

type reviewRow struct {
	reviewRecord
	Username string
}

func (r reviewRepo) ListByProduct(ctx context.Context, productID uint) ([]domain.Review, error) {
	var rows []reviewRow
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, users.username").
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC, reviews.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "reviews", productID)
	}
	out := make([]domain.Review, len(rows))
	for i, row := range rows {
		out[i] = domain.Review{
			ID:        row.ID,
			ProductID: row.ProductID,
			UserID:    row.UserID,
			Username:  row.Username,
			Rating:    row.Rating,
			Comment:   row.Comment,
			CreatedAt: row.CreatedAt,
		}
	}
	return out, nil
}
