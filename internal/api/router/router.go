// Package router assembles the HTTP surface of the dispatch service.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tradeosbc/trade-dispatch-platform/internal/http/handlers"
	httpmiddleware "github.com/tradeosbc/trade-dispatch-platform/internal/http/middleware"
	"github.com/tradeosbc/trade-dispatch-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	WebhookHandler *handlers.SMSWebhookHandler
	AdminHandler   *handlers.AdminHandler
	AdminJWTSecret string
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhook, health, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.WebhookHandler.HealthCheck)
		public.Post("/webhook/sms", cfg.WebhookHandler.Handle)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Operator endpoints
	if cfg.AdminHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Post("/clients/{clientID}/accept-terms", cfg.AdminHandler.AcceptTerms)
			admin.Get("/clients/{clientID}/leads", cfg.AdminHandler.ListLeads)
			admin.Post("/leads/{leadID}/pause", cfg.AdminHandler.PauseLead)
			admin.Put("/industries/{industryType}/prompt", cfg.AdminHandler.UpdateIndustryPrompt)
		})
	}

	return r
}
