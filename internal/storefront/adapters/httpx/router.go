package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ioproxxy/mosolarweb/internal/pkg/reqmeta"
)

func NewRouter(handler *Handler, tokens TokenParser) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(reqmeta.Middleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.Health)
		// Gateway callbacks carry no user credentials.
		r.Post("/payments/mpesa/callback", handler.MpesaCallback)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(tokens))

			r.Get("/categories", handler.ListCategories)
			r.Get("/products", handler.ListProducts)
			r.Get("/products/{slug}", handler.GetProduct)
			r.Post("/products/{id}/reviews", handler.SubmitReview)

			r.Post("/auth/register", handler.Register)
			r.Post("/auth/login", handler.Login)

			r.Get("/cart", handler.GetCart)
			r.Post("/cart/items", handler.AddCartItem)
			r.Put("/cart/items/{productID}", handler.UpdateCartItem)
			r.Delete("/cart/items/{productID}", handler.RemoveCartItem)
			r.Post("/checkout", handler.Checkout)

			r.Get("/orders", handler.ListOrders)
			r.Get("/orders/queue", handler.OrderQueue)
			r.Route("/orders/{id}", func(r chi.Router) {
				r.Get("/", handler.GetOrder)
				r.Delete("/", handler.DeleteOrder)
				r.Post("/payments", handler.Pay)
				r.Get("/invoice", handler.Invoice)
				r.Post("/delivery-comments", handler.AddDeliveryComment)
				r.Get("/delivery-comments", handler.ListDeliveryComments)
				r.Post("/installation-comments", handler.AddInstallationComment)
				r.Get("/installation-comments", handler.ListInstallationComments)
			})

			r.Post("/chat/sessions", handler.StartChat)
			r.Post("/chat/sessions/{token}/messages", handler.SendChat)
			r.Get("/chat/sessions/{token}/messages", handler.ChatMessages)

			r.Get("/support/tickets", handler.ListTickets)
			r.Get("/support/tickets/{id}", handler.GetTicket)
			r.Post("/support/tickets/{id}/replies", handler.ReplyTicket)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/products", handler.CreateProduct)
				r.Put("/products/{id}", handler.UpdateProduct)
				r.Delete("/products/{id}", handler.DeleteProduct)
				r.Patch("/products/{id}/stock", handler.UpdateStock)
				r.Get("/inventory/stats", handler.InventoryStats)
				r.Get("/orders/{id}/payment-log", handler.PaymentLog)
				r.Get("/invoice-templates", handler.ListInvoiceTemplates)
				r.Post("/invoice-templates", handler.CreateInvoiceTemplate)
				r.Put("/invoice-templates/{id}", handler.UpdateInvoiceTemplate)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
