// Package reqmeta carries per-request metadata (request id, idempotency
// key, guest cart session) through context.Context.
package reqmeta

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	HeaderXRequestId      = "X-Request-Id"
	HeaderXIdempotencyKey = "X-Idempotency-Key"
	HeaderXCartSession    = "X-Cart-Session"

	ContextKeyIdempotencyKey contextKey = "x-idempotency-key"
	ContextKeyCartSession    contextKey = "x-cart-session"
)

// Middleware copies the idempotency key and cart session headers into the
// request context. The request id itself is handled by chi's RequestID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if v := r.Header.Get(HeaderXIdempotencyKey); v != "" {
			ctx = context.WithValue(ctx, ContextKeyIdempotencyKey, v)
		}
		if v := r.Header.Get(HeaderXCartSession); v != "" {
			ctx = context.WithValue(ctx, ContextKeyCartSession, v)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return "unknown"
}

func IdempotencyKey(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyIdempotencyKey).(string)
	return v
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ContextKeyIdempotencyKey, key)
}

func CartSession(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyCartSession).(string)
	return v
}

func WithCartSession(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ContextKeyCartSession, token)
}
