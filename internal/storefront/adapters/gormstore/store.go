// Package gormstore implements the storefront store on a relational
// database through gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to PostgreSQL.
func Open(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("gormstore: open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gormstore: pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// gormConfig translates driver errors so unique violations surface as
// gorm.ErrDuplicatedKey.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
}

// Migrate creates or updates every table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("gormstore: migrate: %w", err)
	}
	return nil
}

type Store struct {
	db *gorm.DB
}

var _ app.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx app.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Products() app.ProductRepository                 { return productRepo{s.db} }
func (s *Store) Categories() app.CategoryRepository              { return categoryRepo{s.db} }
func (s *Store) Carts() app.CartRepository                       { return cartRepo{s.db} }
func (s *Store) Orders() app.OrderRepository                     { return orderRepo{s.db} }
func (s *Store) PaymentMethods() app.PaymentMethodRepository     { return methodRepo{s.db} }
func (s *Store) Comments() app.CommentRepository                 { return commentRepo{s.db} }
func (s *Store) Reviews() app.ReviewRepository                   { return reviewRepo{s.db} }
func (s *Store) Users() app.UserRepository                       { return userRepo{s.db} }
func (s *Store) Support() app.SupportRepository                  { return supportRepo{s.db} }
func (s *Store) InvoiceTemplates() app.InvoiceTemplateRepository { return templateRepo{s.db} }

// translate maps gorm errors onto the domain taxonomy.
func translate(err error, entity string, key any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(entity, key)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s %v already exists", domain.ErrConflict, entity, key)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, entity, err)
}
