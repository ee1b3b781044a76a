package catalog

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MiniShop/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

// NewHandler serves the product API next to the operational endpoints
// (health, readiness backed by a store ping, and token-guarded metrics).
func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = log
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, kit.Recoverer, kit.Logging(log))

	if deps.Registry != nil {
		r.Use(kit.NewMetrics(deps.Registry).Middleware(deps.Service, kit.ChiRoutePatternOrPath))
		if deps.MetricsEnabled {
			r.With(kit.MetricsAuth(deps.MetricsToken)).
				Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
		}
	} else if deps.MetricsEnabled {
		log.Warn("metrics enabled but Registry is nil")
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	r.Mount("/products", s.Routes())
	return r
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}
