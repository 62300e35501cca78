package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
)

func (h *Handler) StartChat(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Support.StartChat(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msgs, err := h.svc.Support.ChatMessages(r.Context(), session.Token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ChatSessionResponse{Token: session.Token, Messages: mapChatMessages(msgs)})
}

func (h *Handler) SendChat(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if !decode(w, r, &req) {
		return
	}
	reply, err := h.svc.Support.SendChat(r.Context(), PrincipalFrom(r.Context()), chi.URLParam(r, "token"), req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ChatReplyResponse{AutoReply: reply.AutoReply, TicketID: reply.TicketID})
}

func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.Support.ChatMessages(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapChatMessages(msgs))
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.Support.Tickets(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]TicketResponse, len(tickets))
	for i := range tickets {
		out[i] = mapTicket(&tickets[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	ticket, err := h.svc.Support.Ticket(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTicket(ticket))
}

func (h *Handler) ReplyTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req TicketReplyRequest
	if !decode(w, r, &req) {
		return
	}
	ticket, err := h.svc.Support.Reply(r.Context(), PrincipalFrom(r.Context()), id, req.Message, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapTicket(ticket))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req app.NewProductInput
	if !decode(w, r, &req) {
		return
	}
	product, err := h.svc.Catalog.CreateProduct(r.Context(), PrincipalFrom(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProduct(*product))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.UpdateProductInput
	if !decode(w, r, &req) {
		return
	}
	product, err := h.svc.Catalog.UpdateProduct(r.Context(), PrincipalFrom(r.Context()), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(*product))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteProduct(r.Context(), PrincipalFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req StockUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	product, err := h.svc.Catalog.UpdateStock(r.Context(), PrincipalFrom(r.Context()), id, req.Action, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(*product))
}

func (h *Handler) InventoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Catalog.InventoryStats(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, InventoryStatsResponse{
		Total:      stats.Total,
		LowStock:   stats.LowStock,
		OutOfStock: stats.OutOfStock,
		InStock:    stats.InStock,
	})
}

func (h *Handler) ListInvoiceTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.Invoices.Templates(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]InvoiceTemplateResponse, len(templates))
	for i, t := range templates {
		out[i] = mapInvoiceTemplate(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateInvoiceTemplate(w http.ResponseWriter, r *http.Request) {
	var req app.TemplateInput
	if !decode(w, r, &req) {
		return
	}
	tpl, err := h.svc.Invoices.CreateTemplate(r.Context(), PrincipalFrom(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapInvoiceTemplate(*tpl))
}

func (h *Handler) UpdateInvoiceTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.TemplateInput
	if !decode(w, r, &req) {
		return
	}
	tpl, err := h.svc.Invoices.UpdateTemplate(r.Context(), PrincipalFrom(r.Context()), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapInvoiceTemplate(*tpl))
}
