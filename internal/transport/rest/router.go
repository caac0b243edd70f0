package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/pix-donation/api"
	"github.com/frahmantamala/pix-donation/internal/donation"
	"github.com/frahmantamala/pix-donation/internal/transport/middleware"
	"github.com/frahmantamala/pix-donation/internal/transport/swagger"
	"github.com/frahmantamala/pix-donation/internal/webhook"
)

type Handlers struct {
	Donation *donation.Handler
	Webhook  *webhook.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec())
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if handlers.Donation != nil {
			r.Route("/donations", func(dr chi.Router) {
				dr.Post("/", handlers.Donation.CreateDonation)
				dr.Get("/{id}", handlers.Donation.GetDonation)
			})
		}

		if handlers.Webhook != nil {
			r.Post("/webhooks/pagou", handlers.Webhook.ReceivePagou)
		}
	})
}
