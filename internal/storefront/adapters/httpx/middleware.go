package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

// TokenParser resolves a bearer token into the caller's principal.
type TokenParser interface {
	Parse(token string) (domain.Principal, error)
}

type principalKey struct{}

// Authenticate attaches the request principal to the context. Requests
// without an Authorization header are anonymous; a bad token is rejected.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := domain.Anonymous()
			if h := r.Header.Get("Authorization"); h != "" {
				raw, ok := strings.CutPrefix(h, "Bearer ")
				if !ok {
					writeError(w, http.StatusUnauthorized, "invalid_token", "expected a bearer token")
					return
				}
				parsed, err := tokens.Parse(strings.TrimSpace(raw))
				if err != nil {
					writeError(w, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
					return
				}
				p = parsed
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the anonymous principal when none was attached.
func PrincipalFrom(ctx context.Context) domain.Principal {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	if !ok {
		return domain.Anonymous()
	}
	return p
}
