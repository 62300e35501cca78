package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ioproxxy/mosolarweb/internal/pkg/reqmeta"
	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

// Services groups the application services the HTTP surface talks to.
type Services struct {
	Catalog  *app.CatalogService
	Carts    *app.CartService
	Orders   *app.OrderService
	Payments *app.PaymentService
	Comments *app.CommentService
	Accounts *app.AccountService
	Support  *app.SupportService
	Invoices *app.InvoiceService
}

// Handler translates HTTP requests into service calls. It holds no state
// of its own.
type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Catalog.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, *mapCategory(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		CategorySlug: q.Get("category"),
		Search:       q.Get("q"),
	}
	filter.FeaturedOnly, _ = strconv.ParseBool(q.Get("featured"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	page, err := h.svc.Catalog.ListProducts(r.Context(), filter, offset, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProductPage(page))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Catalog.ProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProductDetail(detail))
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.ReviewInput
	if !decode(w, r, &req) {
		return
	}
	review, created, err := h.svc.Catalog.SubmitReview(r.Context(), PrincipalFrom(r.Context()), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, mapReview(*review))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterInput
	if !decode(w, r, &req) {
		return
	}
	user, err := h.svc.Accounts.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapUser(user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req app.LoginInput
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Accounts.Login(r.Context(), req, reqmeta.CartSession(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:       res.Token,
		ExpiresAt:   res.ExpiresAt,
		User:        mapUser(res.User),
		MergedLines: len(res.Merge.Merged),
		FailedLines: len(res.Merge.Failed),
	})
}

// fail maps a service error onto a status code. Unknown errors are logged
// and reported without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_failed", Message: verr.Message, Fields: verr.Fields})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, domain.ErrOutOfStock):
		writeError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission_denied", "you are not allowed to perform this action")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrGatewayFailure):
		slog.ErrorContext(r.Context(), "payment gateway failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "gateway_failure", "the payment provider is unavailable, please retry")
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", name+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
