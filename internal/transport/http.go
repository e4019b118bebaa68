package transport

import (
	"net/http"

	"github.com/eadshop/ecommerce-services/internal/handler"
	"github.com/eadshop/ecommerce-services/internal/order"
	"github.com/eadshop/ecommerce-services/internal/product"
	"github.com/eadshop/ecommerce-services/internal/user"
	"github.com/eadshop/ecommerce-services/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

func newBaseRouter(m *metrics.HTTPMetrics) *chi.Mux {
	r := chi.NewRouter()
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func NewOrderRouter(svc order.Service, m *metrics.HTTPMetrics) *chi.Mux {
	r := newBaseRouter(m)
	h := handler.NewOrderHandler(svc)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
		r.Get("/user/{userId}", h.GetUserOrders)
		r.Get("/{id}", h.GetOrderByID)
		r.Patch("/{id}", h.UpdateOrderStatus)
		r.Delete("/{id}", h.DeleteOrder)
	})

	return r
}

func NewUserRouter(svc user.Service, m *metrics.HTTPMetrics) *chi.Mux {
	r := newBaseRouter(m)
	h := handler.NewUserHandler(svc)

	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/update", h.UpdateUser)
	r.Get("/users/{id}", h.GetUserByID)
	r.Delete("/users/{id}", h.DeleteUser)

	return r
}

func NewProductRouter(svc product.Service, m *metrics.HTTPMetrics) *chi.Mux {
	r := newBaseRouter(m)
	h := handler.NewProductHandler(svc)

	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProductByID)
		r.Post("/{id}/decrement", h.DecrementStock)
	})

	return r
}
