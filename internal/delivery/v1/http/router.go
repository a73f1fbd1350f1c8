package http

import (
	"net/http"

	_ "github.com/DRSN-tech/cart-sync/docs" // Импорт описания API для swagger
	"github.com/DRSN-tech/cart-sync/internal/usecase"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// ReadyFunc сообщает, восстановлена ли корзина и готов ли сервис.
type ReadyFunc func() bool

type Router struct {
	router  *chi.Mux
	logger  logger.Logger
	metrics http.Handler
	ready   ReadyFunc
}

// NewRouter создаёт роутер. metrics может быть nil, тогда /metrics не регистрируется.
func NewRouter(router *chi.Mux, logger logger.Logger, metrics http.Handler, ready ReadyFunc) *Router {
	if ready == nil {
		ready = func() bool { return true }
	}

	return &Router{router: router, logger: logger, metrics: metrics, ready: ready}
}

func (r *Router) Init(cartUC usecase.CartSyncUC) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.router.Get("/healthz", r.health)
	if r.metrics != nil {
		r.router.Handle("/metrics", r.metrics)
	}

	r.router.Route("/api/v1", func(v1 chi.Router) {
		cartHandler := NewCartHandler(cartUC, r.logger)
		registerCartRoutes(v1, cartHandler)
	})
}

func registerCartRoutes(router chi.Router, h *CartHandler) {
	router.Route("/cart", func(c chi.Router) {
		c.Get("/", h.getCart)
		c.Delete("/", h.clearCart)
		c.Post("/refresh", h.refreshCart)
		c.Post("/sync", h.syncCart)
		c.Delete("/error", h.clearError)

		c.Post("/items", h.addItem)
		c.Patch("/items/{productID}", h.updateQuantity)
		c.Delete("/items/{productID}", h.removeItem)
	})
}

func (r *Router) health(w http.ResponseWriter, _ *http.Request) {
	if !r.ready() {
		WriteSuccess(w, http.StatusServiceUnavailable, HealthResponse{Status: "starting", Ready: false})
		return
	}

	WriteSuccess(w, http.StatusOK, HealthResponse{Status: "ok", Ready: true})
}
