package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/bookstore-api/internal/domain/book"
	"github.com/xenking/bookstore-api/internal/domain/customer"
	"github.com/xenking/bookstore-api/internal/domain/order"
)

// Handler maps HTTP requests onto the domain services. It owns boundary
// validation and the error-to-status mapping; business invariants live in
// the services.
type Handler struct {
	books     *book.Service
	customers *customer.Service
	orders    *order.Service
}

// New constructs a Handler with the required domain services.
func New(books *book.Service, customers *customer.Service, orders *order.Service) *Handler {
	return &Handler{
		books:     books,
		customers: customers,
		orders:    orders,
	}
}

// Routes mounts all API endpoints under /api. The guard middleware, when
// not nil, protects every mutating endpoint; read endpoints stay open.
func (h *Handler) Routes(guard func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.listBooks)
			r.Get("/available", h.listAvailableBooks)
			r.Get("/search/title", h.searchBooksByTitle)
			r.Get("/search/author", h.searchBooksByAuthor)
			r.Get("/category/{category}", h.listBooksByCategory)
			r.Get("/isbn/{isbn}", h.getBookByISBN)
			r.Get("/{id}", h.getBook)

			r.Group(func(r chi.Router) {
				if guard != nil {
					r.Use(guard)
				}
				r.Post("/", h.createBook)
				r.Put("/{id}", h.updateBook)
				r.Delete("/{id}", h.deleteBook)
				r.Patch("/{id}/stock", h.adjustBookStock)
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Get("/email/{email}", h.getCustomerByEmail)
			r.Get("/{id}", h.getCustomer)

			r.Group(func(r chi.Router) {
				if guard != nil {
					r.Use(guard)
				}
				r.Post("/", h.createCustomer)
				r.Put("/{id}", h.updateCustomer)
				r.Delete("/{id}", h.deleteCustomer)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Get("/customer/{customerId}", h.listOrdersByCustomer)
			r.Get("/status/{status}", h.listOrdersByStatus)
			r.Get("/{id}", h.getOrder)

			r.Group(func(r chi.Router) {
				if guard != nil {
					r.Use(guard)
				}
				r.Post("/", h.createOrder)
				r.Patch("/{id}/status", h.updateOrderStatus)
				r.Delete("/{id}/cancel", h.cancelOrder)
			})
		})
	})

	return r
}
