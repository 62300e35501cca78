package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ioproxxy/mosolarweb/internal/pkg/reqmeta"
	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

// maxCallbackBody caps the size of gateway callback payloads.
const maxCallbackBody = 64 << 10

// cartIdentity resolves the cart of the request. Anonymous callers get
// their guest token echoed back so the client can keep using it.
func (h *Handler) cartIdentity(w http.ResponseWriter, r *http.Request) domain.Identity {
	id := h.svc.Carts.Identity(PrincipalFrom(r.Context()), reqmeta.CartSession(r.Context()))
	if id.Anonymous() {
		w.Header().Set(reqmeta.HeaderXCartSession, id.GuestToken)
	}
	return id
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, id domain.Identity, status int) {
	view, err := h.svc.Carts.View(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, mapCart(view))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r, h.cartIdentity(w, r), http.StatusOK)
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	id := h.cartIdentity(w, r)
	var req CartItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if _, err := h.svc.Carts.Add(r.Context(), PrincipalFrom(r.Context()), id, req.ProductID, req.Quantity); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCart(w, r, id, http.StatusCreated)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id := h.cartIdentity(w, r)
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}
	var req CartItemRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.svc.Carts.Update(r.Context(), PrincipalFrom(r.Context()), id, productID, req.Quantity); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCart(w, r, id, http.StatusOK)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id := h.cartIdentity(w, r)
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}
	found, err := h.svc.Carts.Remove(r.Context(), PrincipalFrom(r.Context()), id, productID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "product is not in the cart")
		return
	}
	h.writeCart(w, r, id, http.StatusOK)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req app.CheckoutInput
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Orders.Checkout(r.Context(), PrincipalFrom(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := CheckoutResponse{Order: mapOrder(res.Order)}
	for _, d := range res.Dropped {
		reason := "unavailable"
		if d.Reason != nil {
			reason = d.Reason.Error()
		}
		out.Dropped = append(out.Dropped, DroppedLineResponse{ProductID: d.ProductID, Quantity: d.Quantity, Reason: reason})
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.ListMine(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

func (h *Handler) OrderQueue(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.Queue(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	order, err := h.svc.Orders.Get(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Orders.Delete(r.Context(), PrincipalFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pay answers 200 when the order is paid, 202 while an M-Pesa prompt
// awaits its callback and 402 on a decline.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.PaymentRequest
	if !decode(w, r, &req) {
		return
	}

	slog.InfoContext(r.Context(), "payment submitted", "request_id", reqmeta.RequestID(r.Context()), "order_id", id, "method", req.Method)

	outcome, err := h.svc.Payments.Pay(r.Context(), PrincipalFrom(r.Context()), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := PaymentResponse{
		Success:              outcome.Success,
		TransactionID:        outcome.TransactionID,
		Message:              outcome.Message,
		DevMode:              outcome.DevMode,
		AwaitingConfirmation: outcome.AwaitingConfirmation,
	}
	if outcome.Order != nil {
		o := mapOrder(outcome.Order)
		resp.Order = &o
	}

	status := http.StatusOK
	switch {
	case !outcome.Success:
		status = http.StatusPaymentRequired
	case outcome.AwaitingConfirmation:
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// MpesaCallback always acknowledges so the gateway stops retrying.
func (h *Handler) MpesaCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		slog.WarnContext(r.Context(), "failed to read mpesa callback", "error", err)
	} else {
		res, err := h.svc.Payments.HandleMpesaCallback(r.Context(), body)
		if err != nil {
			slog.ErrorContext(r.Context(), "mpesa callback not applied", "error", err)
		} else if !res.Matched {
			slog.InfoContext(r.Context(), "mpesa callback matched no order")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func (h *Handler) PaymentLog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	runs, err := h.svc.Payments.PaymentLog(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPaymentRuns(runs))
}

func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.svc.Invoices.Generate(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inv.FileName()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(inv.PDF)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(inv.PDF); err != nil {
		slog.WarnContext(r.Context(), "failed to write invoice", "order_id", id, "error", err)
	}
}

func (h *Handler) AddDeliveryComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.DeliveryCommentInput
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Comments.AddDeliveryComment(r.Context(), PrincipalFrom(r.Context()), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentResult[DeliveryCommentResponse]{
		Comment: mapDeliveryComment(*res.Comment),
		Effect:  mapEffect(res.Effect),
	})
}

func (h *Handler) ListDeliveryComments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	comments, err := h.svc.Comments.ListDelivery(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]DeliveryCommentResponse, len(comments))
	for i, c := range comments {
		out[i] = mapDeliveryComment(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AddInstallationComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.InstallationCommentInput
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Comments.AddInstallationComment(r.Context(), PrincipalFrom(r.Context()), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentResult[InstallationCommentResponse]{
		Comment: mapInstallationComment(*res.Comment),
		Effect:  mapEffect(res.Effect),
	})
}

func (h *Handler) ListInstallationComments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	comments, err := h.svc.Comments.ListInstallation(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]InstallationCommentResponse, len(comments))
	for i, c := range comments {
		out[i] = mapInstallationComment(c)
	}
	writeJSON(w, http.StatusOK, out)
}
