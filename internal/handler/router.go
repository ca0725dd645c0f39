package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/bookstore-system/internal/middleware"
)

// SetupRouter настраивает маршрутизацию HTTP-запросов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{productID}", h.GetProduct)
		r.Post("/contact", h.SubmitContact)
		r.Post("/init", h.InitData)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware)

			r.Get("/auth/me", h.Me)
			r.Get("/cart", h.GetCart)
			r.Post("/cart", h.AddToCart)
			r.Put("/cart/{productID}", h.UpdateCartItem)
			r.Delete("/cart/{productID}", h.RemoveCartItem)
			r.Post("/orders", h.CreateOrder)
			r.Get("/orders", h.GetOrders)

			r.Group(func(r chi.Router) {
				r.Use(h.auth.RequireAdmin)

				r.Post("/admin/products", h.CreateProduct)
				r.Put("/admin/products/{productID}", h.UpdateProduct)
				r.Delete("/admin/products/{productID}", h.DeleteProduct)
				r.Get("/admin/orders", h.GetAllOrders)
				r.Put("/admin/orders/{orderID}/status", h.UpdateOrderStatus)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
