// Package http exposes the checkout, listing and admin endpoints.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// ConcertService serves both the public listing and the admin catalogue.
type ConcertService interface {
	PublishedConcerts
	AdminConcertService
}

// Dependencies wires the router to the application services.
type Dependencies struct {
	Checkout    Checkouter
	Concerts    ConcertService
	Inventory   AdminInventoryService
	Storage     Pinger
	Metrics     http.Handler
	CORSOrigins []string
	Logger      logrus.FieldLogger
}

// NewRouter builds the service's HTTP handler.
func NewRouter(deps Dependencies) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))
	r.Use(CORS(deps.CORSOrigins))
	r.NotFound(NotFoundHandler())
	r.MethodNotAllowed(MethodNotAllowedHandler())

	r.Get("/health", HealthHandler(deps.Storage, log))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Get("/concerts/{concertID}", HandleShowConcert(deps.Concerts, log))
	r.Post("/concerts/{concertID}/orders", HandleCheckout(deps.Checkout, log))

	admin := NewAdminHandlers(deps.Concerts, deps.Inventory, log)
	r.Route("/admin/concerts", admin.Routes)

	return r
}
