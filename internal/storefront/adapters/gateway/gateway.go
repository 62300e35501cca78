// Package gateway simulates the card processor and the M-Pesa STK push API.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ioproxxy/mosolarweb/internal/pkg/cache"
	"github.com/ioproxxy/mosolarweb/internal/pkg/reqmeta"
	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

const (
	DefaultDeclineNumber = "4000000000000002"
	idempotencyTTL       = 24 * time.Hour
)

type Config struct {
	// DevMode makes M-Pesa pushes complete synchronously instead of
	// waiting for the callback.
	DevMode        bool
	Shortcode      string
	DeclineNumbers []string
}

type Gateway struct {
	cfg   Config
	cache cache.Cache
	now   func() time.Time
}

var _ app.PaymentGateway = (*Gateway)(nil)

func New(cfg Config, c cache.Cache) *Gateway {
	if len(cfg.DeclineNumbers) == 0 {
		cfg.DeclineNumbers = []string{DefaultDeclineNumber}
	}
	if c == nil {
		c = cache.NewMemoryCache("gateway")
	}
	return &Gateway{cfg: cfg, cache: c, now: time.Now}
}

func (g *Gateway) ChargeCard(ctx context.Context, order *domain.Order, card app.CardDetails) (app.GatewayResult, error) {
	return g.idempotent(ctx, "card", order, func() app.GatewayResult {
		if !order.TotalAmount.IsPositive() {
			return app.GatewayResult{Message: "Invalid payment amount."}
		}
		if slices.Contains(g.cfg.DeclineNumbers, digitsOnly(card.Number)) {
			return app.GatewayResult{Message: "Your card was declined."}
		}
		return app.GatewayResult{
			Success:       true,
			TransactionID: "CARD-" + uuid.NewString(),
			Message:       "Payment processed successfully.",
		}
	})
}

func (g *Gateway) ChargeMobileMoney(ctx context.Context, order *domain.Order, phone string) (app.GatewayResult, error) {
	return g.idempotent(ctx, "mpesa", order, func() app.GatewayResult {
		if !order.TotalAmount.IsPositive() {
			return app.GatewayResult{Message: "Invalid payment amount."}
		}
		id := fmt.Sprintf("ws_CO_%s%s", g.now().UTC().Format("20060102150405"), strings.ToUpper(uuid.NewString()[:8]))
		res := app.GatewayResult{Success: true, TransactionID: id, DevMode: g.cfg.DevMode}
		if g.cfg.DevMode {
			res.Message = "M-Pesa payment simulated (development mode)."
		} else {
			res.Message = fmt.Sprintf("An M-Pesa prompt was sent to %s. Enter your PIN to complete the payment.", phone)
		}
		slog.InfoContext(ctx, "mpesa stk push", "order_id", order.ID, "checkout_request_id", id, "shortcode", g.cfg.Shortcode, "amount", order.TotalAmount.StringFixed(0))
		return res
	})
}

// idempotent replays the stored result of an earlier charge that carried
// the same idempotency key for the same order, unless that charge has
// since been refunded.
func (g *Gateway) idempotent(ctx context.Context, method string, order *domain.Order, charge func() app.GatewayResult) (app.GatewayResult, error) {
	key := reqmeta.IdempotencyKey(ctx)
	if key == "" {
		return charge(), nil
	}
	cacheKey := g.cache.GenerateKey("charge_"+method, fmt.Sprintf("%d:%s", order.ID, key))

	raw, err := g.cache.Get(ctx, cacheKey)
	if err != nil {
		return app.GatewayResult{}, fmt.Errorf("gateway: read idempotency key: %w", err)
	}
	if raw != "" {
		var res app.GatewayResult
		if err := json.Unmarshal([]byte(raw), &res); err == nil {
			refunded, err := g.Refunded(ctx, res.TransactionID)
			if err != nil {
				return app.GatewayResult{}, fmt.Errorf("gateway: read refund state: %w", err)
			}
			if !refunded {
				slog.InfoContext(ctx, "replaying charge result", "order_id", order.ID, "idempotency_key", key)
				return res, nil
			}
			// A refunded charge collected nothing, so the retry charges again.
			slog.InfoContext(ctx, "stored charge was refunded, charging again", "order_id", order.ID, "idempotency_key", key, "transaction_id", res.TransactionID)
		}
	}

	res := charge()
	data, err := json.Marshal(res)
	if err != nil {
		return res, nil
	}
	if err := g.cache.Set(ctx, cacheKey, data, idempotencyTTL); err != nil {
		slog.WarnContext(ctx, "failed to store charge result", "order_id", order.ID, "error", err)
	}
	return res, nil
}

func (g *Gateway) Refund(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return fmt.Errorf("gateway: refund without transaction id")
	}
	slog.InfoContext(ctx, "charge refunded", "transaction_id", transactionID)
	return g.cache.Set(ctx, g.cache.GenerateKey("refund", transactionID), g.now().UTC().Format(time.RFC3339), 0)
}

// Refunded reports whether a refund was issued for transactionID.
func (g *Gateway) Refunded(ctx context.Context, transactionID string) (bool, error) {
	if transactionID == "" {
		return false, nil
	}
	v, err := g.cache.Get(ctx, g.cache.GenerateKey("refund", transactionID))
	return v != "", err
}
