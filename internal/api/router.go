package api

import (
	"net/http"

	_ "cbrates/docs"
	"cbrates/internal/rate/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swagger "github.com/swaggo/http-swagger"
)

func NewRouter(rateHandler *handler.Handler, gatherer prometheus.Gatherer, allowedOrigins []string) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))
	// the browser page that consumes /api/getData is served from another origin during development
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Get("/api/getData", rateHandler.GetData)
	router.Route("/api/v1/rates", func(r chi.Router) {
		r.Get("/", rateHandler.List)
		r.Post("/refresh", rateHandler.Refresh)
		r.Get("/{code}", rateHandler.GetByCode)
		r.Delete("/{id:[0-9]+}", rateHandler.Delete)
	})
	return router
}
