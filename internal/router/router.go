package router

import (
	"pos-edge-sync/internal/handler"
	"pos-edge-sync/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	ProductHandler  *handler.ProductHandler
	CartHandler     *handler.CartHandler
	SaleHandler     *handler.SaleHandler
	SyncHandler     *handler.SyncHandler
	SettingsHandler *handler.SettingsHandler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes). Recovery sits inside
	// RequestID and Logging so a panic still logs with its request id.
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health probe (no auth, stable path for monitoring)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
		}

		// Catalog endpoints
		if cfg.ProductHandler != nil {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", cfg.ProductHandler.List)
				r.Post("/", cfg.ProductHandler.Create)
				r.Post("/refresh", cfg.ProductHandler.Refresh)
			})
		}

		// Cart endpoints
		if cfg.CartHandler != nil {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cfg.CartHandler.List)
				r.Post("/", cfg.CartHandler.SetLine)
				r.Delete("/", cfg.CartHandler.Clear)
				r.Delete("/{product_id}", cfg.CartHandler.RemoveLine)
			})
		}

		// Checkout and sales history
		if cfg.SaleHandler != nil {
			r.Post("/checkout", cfg.SaleHandler.Checkout)
			r.Get("/sales", cfg.SaleHandler.History)
		}

		// Sync control surface
		if cfg.SyncHandler != nil {
			r.Route("/sync", func(r chi.Router) {
				r.Get("/status", cfg.SyncHandler.Status)
				r.Post("/wake", cfg.SyncHandler.Wake)
				r.Get("/events", cfg.SyncHandler.Events)
			})
		}

		// Terminal settings
		if cfg.SettingsHandler != nil {
			r.Route("/settings/{name}", func(r chi.Router) {
				r.Get("/", cfg.SettingsHandler.Get)
				r.Put("/", cfg.SettingsHandler.Put)
			})
		}
	})

	return r
}
