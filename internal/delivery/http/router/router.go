package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/sitesearch/internal/delivery/http/handler"
	"github.com/user/sitesearch/internal/delivery/http/middleware"
)

// requestTimeout bounds request handling. A single-page re-index fetches
// synchronously, so it needs more than the fetch timeout.
const requestTimeout = 90 * time.Second

func New(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/startIndexing", h.HandleStartIndexing)
		r.Get("/stopIndexing", h.HandleStopIndexing)
		r.Post("/indexPage", h.HandleIndexPage)
		r.Get("/search", h.HandleSearch)
		r.Get("/statistics", h.HandleStatistics)
	})

	return r
}
