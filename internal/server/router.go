package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/famomatic/ytresolve/internal/logging"
	"github.com/famomatic/ytresolve/internal/metrics"
)

// NewRouter mounts the handlers. m may be nil to disable metrics (e.g. in
// tests).
func NewRouter(h *Handler, log *slog.Logger, m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger(log))
	if m != nil {
		r.Use(metrics.RequestMiddleware(m))
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Get("/healthz", h.Healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", h.Resolve)
		r.Get("/player-url", h.PlayerURL)
	})
	return r
}
