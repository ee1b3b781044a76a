package users

import (
	"net/http"
	"net/netip"
	"time"

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

	// Per-IP request budgets per minute; zero picks the defaults.
	SignInPerMin int
	SignUpPerMin int

	// Proxies whose X-Forwarded-For entry names the client for rate limits.
	TrustedProxies []netip.Prefix
}

const (
	signInLimitPerMin = 5
	signUpLimitPerMin = 3
	limitWindow       = 60 * time.Second
)

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := chi.NewRouter()

	metricsOn := deps.MetricsEnabled && deps.Registry != nil
	if deps.MetricsEnabled && deps.Registry == nil {
		deps.Log.Warn("metrics enabled but Registry is nil")
	}

	setupMiddleware(r, deps)
	if deps.Registry != nil {
		registerStoreMetrics(deps.Registry, s.Store)
	}
	setupRoutes(r, s, deps, metricsOn)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.Registry != nil {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}
}

func setupRoutes(r *chi.Mux, s *Server, deps HTTPDeps, metricsOn bool) {
	signInLimit := orDefault(deps.SignInPerMin, signInLimitPerMin)
	signIn := kit.RateLimitByIP(signInLimit, limitWindow, deps.TrustedProxies...)
	destructive := kit.RateLimitByIP(signInLimit, limitWindow, deps.TrustedProxies...)
	signUp := kit.RateLimitByIP(orDefault(deps.SignUpPerMin, signUpLimitPerMin), limitWindow, deps.TrustedProxies...)
	auth := RequireToken(s.JWT)

	r.Route("/users", func(rr chi.Router) {
		rr.With(signUp).Post("/signup", s.handleSignUp)
		rr.With(signIn).Post("/signin", s.handleSignIn)
		rr.With(destructive).Post("/delete", s.handleDelete)
		rr.With(destructive).Post("/delete-all", s.handleDeleteAll)

		rr.Group(func(pr chi.Router) {
			pr.Use(auth)
			pr.Get("/me", s.handleMe)
			pr.Patch("/me", s.handleEditProfile)
			pr.Get("/{id}", s.handleGet)
		})
	})

	r.Route("/admin", func(rr chi.Router) {
		rr.Use(auth)
		rr.Put("/admins/{id}", s.handleGrantAdmin)
		rr.Delete("/admins/{id}", s.handleRevokeAdmin)
	})

	r.With(auth).Get("/auth/whoami", s.handleWhoAmI)

	r.Get("/healthz", healthz)
	r.Get("/readyz", healthz)

	if metricsOn {
		r.With(kit.MetricsAuth(deps.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		)
	}
}

func registerStoreMetrics(reg prometheus.Registerer, store UserStore) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "minishop",
			Name:      "users_registered",
			Help:      "Users currently held by the store",
		},
		func() float64 { return float64(store.Count()) },
	))
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
