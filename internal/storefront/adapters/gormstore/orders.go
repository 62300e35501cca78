package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type cartRepo struct{ db *gorm.DB }

func (r cartRepo) Lines(ctx context.Context, userID uint) ([]domain.CartLine, error) {
	var recs []cartItemRecord
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&recs).Error; err != nil {
		return nil, translate(err, "cart", userID)
	}
	out := make([]domain.CartLine, len(recs))
	for i, rec := range recs {
		out[i] = domain.CartLine{ProductID: rec.ProductID, Quantity: rec.Quantity}
	}
	return out, nil
}

func (r cartRepo) Put(ctx context.Context, userID, productID uint, qty int) error {
	rec := cartItemRecord{UserID: userID, ProductID: productID, Quantity: qty, CreatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{"quantity": qty}),
	}).Create(&rec).Error
	return translate(err, "cart item", productID)
}

func (r cartRepo) Delete(ctx context.Context, userID, productID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&cartItemRecord{})
	if res.Error != nil {
		return false, translate(res.Error, "cart item", productID)
	}
	return res.RowsAffected > 0, nil
}

func (r cartRepo) Clear(ctx context.Context, userID uint) error {
	return translate(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&cartItemRecord{}).Error, "cart", userID)
}

func (r cartRepo) RemoveProduct(ctx context.Context, productID uint) error {
	return translate(r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&cartItemRecord{}).Error, "cart item", productID)
}

type orderRepo struct{ db *gorm.DB }

func (r orderRepo) Create(ctx context.Context, o *domain.Order) error {
	rec := orderFromDomain(o)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "order", o.UserID)
	}
	o.ID = rec.ID
	for i := range o.Items {
		o.Items[i].ID = rec.Items[i].ID
		o.Items[i].OrderID = rec.ID
	}
	return nil
}

func (r orderRepo) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (r orderRepo) Get(ctx context.Context, id uint) (*domain.Order, error) {
	var rec orderRecord
	if err := r.withItems(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err, "order", id)
	}
	return rec.toDomain(), nil
}

func (r orderRepo) GetByPaymentReference(ctx context.Context, ref string) (*domain.Order, error) {
	if ref == "" {
		return nil, domain.NotFound("order with payment reference", ref)
	}
	var rec orderRecord
	err := r.withItems(ctx).Where("payment_reference = ?", ref).First(&rec).Error
	if err == nil {
		return rec.toDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate(err, "order with payment reference", ref)
	}

	var issued paymentReferenceRecord
	if err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&issued).Error; err != nil {
		return nil, translate(err, "order with payment reference", ref)
	}
	return r.Get(ctx, issued.OrderID)
}

func (r orderRepo) AddPaymentReference(ctx context.Context, orderID uint, ref string) error {
	rec := paymentReferenceRecord{OrderID: orderID, Reference: ref, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "payment reference", ref)
	}
	return nil
}

func (r orderRepo) find(q *gorm.DB, key any) ([]domain.Order, error) {
	var recs []orderRecord
	if err := q.Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, translate(err, "orders", key)
	}
	out := make([]domain.Order, len(recs))
	for i, rec := range recs {
		out[i] = *rec.toDomain()
	}
	return out, nil
}

func (r orderRepo) ListByUser(ctx context.Context, userID uint) ([]domain.Order, error) {
	return r.find(r.withItems(ctx).Where("user_id = ?", userID), userID)
}

func (r orderRepo) ListByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	q := r.withItems(ctx)
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		q = q.Where("status IN ?", names)
	}
	return r.find(q, statuses)
}

func (r orderRepo) UpdateStatus(ctx context.Context, o *domain.Order) error {
	res := r.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", o.ID).Updates(map[string]any{
		"status":            string(o.Status),
		"payment_reference": o.PaymentReference,
		"updated_at":        time.Now().UTC(),
	})
	if res.Error != nil {
		return translate(res.Error, "order", o.ID)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("order", o.ID)
	}
	return nil
}

func (r orderRepo) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	for _, child := range []any{&orderItemRecord{}, &deliveryCommentRecord{}, &installationCommentRecord{}, &paymentReferenceRecord{}} {
		if err := db.Where("order_id = ?", id).Delete(child).Error; err != nil {
			return translate(err, "order", id)
		}
	}
	res := db.Delete(&orderRecord{}, id)
	if res.Error != nil {
		return translate(res.Error, "order", id)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("order", id)
	}
	return nil
}

func (r orderRepo) ContainsProduct(ctx context.Context, productID uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&orderItemRecord{}).Where("product_id = ?", productID).Count(&n).Error; err != nil {
		return false, translate(err, "order items", productID)
	}
	return n > 0, nil
}

type methodRepo struct{ db *gorm.DB }

func (r methodRepo) Get(ctx context.Context, id uint) (*domain.PaymentMethod, error) {
	var rec paymentMethodRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err, "payment method", id)
	}
	return rec.toDomain(), nil
}

func (r methodRepo) GetByCode(ctx context.Context, code domain.PaymentMethodCode) (*domain.PaymentMethod, error) {
	var rec paymentMethodRecord
	if err := r.db.WithContext(ctx).Where("code = ?", string(code)).First(&rec).Error; err != nil {
		return nil, translate(err, "payment method", code)
	}
	return rec.toDomain(), nil
}

func (r methodRepo) ListActive(ctx context.Context) ([]domain.PaymentMethod, error) {
	var recs []paymentMethodRecord
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&recs).Error; err != nil {
		return nil, translate(err, "payment methods", "active")
	}
	out := make([]domain.PaymentMethod, len(recs))
	for i, rec := range recs {
		out[i] = *rec.toDomain()
	}
	return out, nil
}

func (r methodRepo) Create(ctx context.Context, m *domain.PaymentMethod) error {
	rec := paymentMethodRecord{Name: m.Name, Code: string(m.Code), IsActive: m.IsActive}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "payment method", m.Code)
	}
	m.ID = rec.ID
	return nil
}

type commentRepo struct{ db *gorm.DB }

func (r commentRepo) AddDelivery(ctx context.Context, c *domain.DeliveryComment) error {
	rec := deliveryCommentRecord{
		OrderID:        c.OrderID,
		DriverID:       c.DriverID,
		DriverName:     c.DriverName,
		Comment:        c.Comment,
		DeliveryStatus: string(c.DeliveryStatus),
		Rating:         c.Rating,
		CreatedAt:      c.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "delivery comment", c.OrderID)
	}
	c.ID = rec.ID
	return nil
}

func (r commentRepo) AddInstallation(ctx context.Context, c *domain.InstallationComment) error {
	rec := installationCommentRecord{
		OrderID:                 c.OrderID,
		InstallerID:             c.InstallerID,
		InstallerName:           c.InstallerName,
		Comment:                 c.Comment,
		InstallationStatus:      string(c.InstallationStatus),
		TechnicalNotes:          c.TechnicalNotes,
		CompletionPercentage:    c.CompletionPercentage,
		EstimatedCompletionDate: c.EstimatedCompletionDate,
		CreatedAt:               c.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err, "installation comment", c.OrderID)
	}
	c.ID = rec.ID
	return nil
}

func (r commentRepo) ListDelivery(ctx context.Context, orderID uint) ([]domain.DeliveryComment, error) {
	var recs []deliveryCommentRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, translate(err, "delivery comments", orderID)
	}
	out := make([]domain.DeliveryComment, len(recs))
	for i, rec := range recs {
		out[i] = rec.toDomain()
	}
	return out, nil
}

func (r commentRepo) ListInstallation(ctx context.Context, orderID uint) ([]domain.InstallationComment, error) {
	var recs []installationCommentRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, translate(err, "installation comments", orderID)
	}
	out := make([]domain.InstallationComment, len(recs))
	for i, rec := range recs {
		out[i] = rec.toDomain()
	}
	return out, nil
}
