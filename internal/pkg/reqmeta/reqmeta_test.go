package reqmeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCopiesHeaders(t *testing.T) {
	testCases := []struct {
		name        string
		headers     map[string]string
		idempotency string
		cart        string
	}{
		{name: "no headers"},
		{
			name:        "both headers",
			headers:     map[string]string{HeaderXIdempotencyKey: "pay-42", HeaderXCartSession: "guest-1"},
			idempotency: "pay-42",
			cart:        "guest-1",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotKey, gotCart, gotID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotKey = IdempotencyKey(r.Context())
				gotCart = CartSession(r.Context())
				gotID = RequestID(r.Context())
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			middleware.RequestID(Middleware(next)).ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tc.idempotency, gotKey)
			assert.Equal(t, tc.cart, gotCart)
			assert.NotEqual(t, "unknown", gotID)
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", RequestID(ctx))
	assert.Empty(t, IdempotencyKey(ctx))

	ctx = WithIdempotencyKey(ctx, "k1")
	ctx = WithCartSession(ctx, "c1")
	assert.Equal(t, "k1", IdempotencyKey(ctx))
	assert.Equal(t, "c1", CartSession(ctx))
}
