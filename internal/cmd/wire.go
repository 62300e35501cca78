package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ioproxxy/mosolarweb/internal/config"
	"github.com/ioproxxy/mosolarweb/internal/coordinator/sagalog"
	"github.com/ioproxxy/mosolarweb/internal/coordinator/sagalog/sqlite"
	"github.com/ioproxxy/mosolarweb/internal/pkg/cache"
	"github.com/ioproxxy/mosolarweb/internal/pkg/events"
	"github.com/ioproxxy/mosolarweb/internal/pkg/mail"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/auth"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/gateway"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/gormstore"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/guestcart"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/httpx"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/invoice"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/memstore"
	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
)

// cleanup releases what was opened so far, last opened first.
type cleanup []func() error

func (c *cleanup) add(fn func() error) { *c = append(*c, fn) }

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			slog.Warn("cleanup failed", "error", err)
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config, closers *cleanup) (app.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := gormstore.Open(gormstore.Config{
			DSN:          cfg.DB.DSN,
			MaxOpenConns: cfg.DB.MaxOpenConns,
			MaxIdleConns: cfg.DB.MaxIdleConns,
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database pool: %w", err)
		}
		closers.add(sqlDB.Close)
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("database ping: %w", err)
		}
		return gormstore.New(db), nil
	default:
		slog.Warn("using the in-memory store; data is lost on restart")
		return memstore.New(), nil
	}
}

func openCache(ctx context.Context, cfg *config.Config, namespace string) (cache.Cache, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(namespace), nil
	}
	c := cache.NewRedisCache(cfg.Redis.Addr, namespace)
	if err := cache.Ping(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func openWorkflowLog(cfg *config.Config, closers *cleanup) (sagalog.Repository, error) {
	if cfg.WorkflowLog.Path == "" {
		slog.Warn("workflow log disabled")
		return nil, nil
	}
	if dir := filepath.Dir(cfg.WorkflowLog.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("workflow log dir: %w", err)
		}
	}
	repo, err := sqlite.Open(cfg.WorkflowLog.Path)
	if err != nil {
		return nil, err
	}
	closers.add(repo.Close)
	return repo, nil
}

func openPublisher(cfg *config.Config, closers *cleanup) (events.Publisher, error) {
	if cfg.Events.AMQPURL == "" {
		return events.NewNoop(), nil
	}
	pub, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		return nil, err
	}
	closers.add(pub.Close)
	return pub, nil
}

func newMailer(cfg *config.Config) mail.Mailer {
	if cfg.Mail.Host == "" {
		return mail.NewNoop()
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
}

type application struct {
	store   app.Store
	handler *httpx.Handler
	tokens  *auth.JWT
}

// buildApplication wires every adapter and service from cfg.
func buildApplication(ctx context.Context, cfg *config.Config, closers *cleanup) (*application, error) {
	store, err := openStore(ctx, cfg, closers)
	if err != nil {
		return nil, err
	}
	guestCache, err := openCache(ctx, cfg, "guest_cart")
	if err != nil {
		return nil, err
	}
	gatewayCache, err := openCache(ctx, cfg, "gateway")
	if err != nil {
		return nil, err
	}
	workflowLog, err := openWorkflowLog(cfg, closers)
	if err != nil {
		return nil, err
	}
	publisher, err := openPublisher(cfg, closers)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	pay := gateway.New(gateway.Config{
		DevMode:        cfg.Payment.DevMode,
		Shortcode:      cfg.Payment.Mpesa.Shortcode,
		DeclineNumbers: cfg.Payment.Card.DeclineNumbers,
	}, gatewayCache)

	carts := app.NewCartService(store, guestcart.New(guestCache, cfg.GuestCart.TTL))
	invoices := app.NewInvoiceService(store, invoice.NewRenderer(), newMailer(cfg))
	handler := httpx.NewHandler(httpx.Services{
		Catalog:  app.NewCatalogService(store),
		Carts:    carts,
		Orders:   app.NewOrderService(store, publisher, cfg.CheckoutPolicy()),
		Payments: app.NewPaymentService(store, pay, workflowLog, publisher, invoices),
		Comments: app.NewCommentService(store, publisher),
		Accounts: app.NewAccountService(store, tokens, carts),
		Support:  app.NewSupportService(store),
		Invoices: invoices,
	})
	return &application{store: store, handler: handler, tokens: tokens}, nil
}
