// Package http exposes the menu terminals, catalog and kitchen over a chi router.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Terminals TerminalProvider
	Catalog   ProductCatalog
	// Kitchen is nil when orders are sent to a remote kitchen.
	Kitchen Kitchen
	// Auth is nil when no staff directory is configured.
	Auth           Authenticator
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.Compress(5))
	r.Use(IdentityMiddleware(cfg.Auth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	catalogHandler := NewCatalogHandler(cfg.Catalog, cfg.RequestTimeout)
	cartHandler := NewCartHandler(cfg.Terminals, cfg.Catalog, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(cfg.Terminals)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Auth != nil {
			authHandler := NewAuthHandler(cfg.Auth)
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", authHandler.Login)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		}

		r.Get("/products", catalogHandler.ListProducts)
		r.Get("/products/{product_id}", catalogHandler.GetProduct)
		r.Get("/tables", catalogHandler.ListTables)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Get("/count", cartHandler.Count)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Put("/table", cartHandler.SetTable)
			r.Delete("/table", cartHandler.ClearTable)
		})

		r.Post("/checkout", checkoutHandler.Checkout)
		r.Get("/checkout/status", checkoutHandler.Status)

		if cfg.Kitchen != nil {
			kitchenHandler := NewKitchenHandler(cfg.Kitchen, cfg.RequestTimeout)
			r.Route("/kitchen/orders", func(r chi.Router) {
				r.Post("/", kitchenHandler.SubmitOrder)
				r.Get("/", kitchenHandler.ListOrders)
				r.Get("/{order_id}", kitchenHandler.GetOrder)
				r.Put("/{order_id}/status", kitchenHandler.UpdateStatus)
			})
		}
	})

	return otelhttp.NewHandler(r, "menu-http")
}
