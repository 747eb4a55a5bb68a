// Package server exposes the conformance HTTP API: token issuance, footprint
// queries and event intake for every registered protocol revision.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Mindburn-Labs/pact-conformance/pkg/api"
	"github.com/Mindburn-Labs/pact-conformance/pkg/auth"
	"github.com/Mindburn-Labs/pact-conformance/pkg/exchange"
	"github.com/Mindburn-Labs/pact-conformance/pkg/footprint"
	"github.com/Mindburn-Labs/pact-conformance/pkg/limiter"
	"github.com/Mindburn-Labs/pact-conformance/pkg/metrics"
	"github.com/Mindburn-Labs/pact-conformance/pkg/observability"
	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// Options wires the server's collaborators.
type Options struct {
	Registry *pact.Registry
	Exchange *exchange.Service
	V2       *footprint.Store[footprint.ProductFootprintV2]
	V3       *footprint.Store[footprint.ProductFootprint]
	Issuer   *auth.Issuer

	// Limiter is optional; nil disables rate limiting.
	Limiter    limiter.Store
	RatePolicy limiter.Policy

	// BaseURL prefixes Link header targets. Empty means scheme://host of the request.
	BaseURL string

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	Version  string
}

// Server is the HTTP front of the conformance service.
type Server struct {
	opts    Options
	logger  *slog.Logger
	handler http.Handler
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = pact.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{opts: opts, logger: opts.Logger}
	s.handler = observability.WrapHandler(s.routes(), "pact-server")
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { api.WriteEndpointNotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { api.WriteMethodNotAllowed(w) })

	r.Get("/health", s.health)
	if s.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.opts.Gatherer))
	}

	rateLimit := auth.RateLimitMiddleware(s.opts.Limiter, s.opts.RatePolicy)

	// Without an issuer no token can be minted and every bearer check fails.
	var verifier auth.TokenVerifier
	if s.opts.Issuer != nil {
		verifier = s.opts.Issuer
		r.With(rateLimit).Method(http.MethodPost, "/auth/token", s.opts.Issuer)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(verifier))
		r.Use(rateLimit)

		if p, ok := s.opts.Registry.Lookup(pact.RevisionV2); ok {
			r.Route("/2", func(r chi.Router) {
				r.Get("/footprints", listFootprints(s, p, s.opts.V2))
				r.Get("/footprints/{id}", getFootprint(s, p, s.opts.V2))
				r.Post("/events", s.postEvent(p))
			})
		}
		if p, ok := s.opts.Registry.Lookup(pact.RevisionV3); ok {
			r.Route("/3", func(r chi.Router) {
				r.Get("/footprints", listFootprints(s, p, s.opts.V3))
				r.Get("/footprints/{id}", getFootprint(s, p, s.opts.V3))
				r.Post("/events", s.postEvent(p))
			})
		}
	})
	return r
}

type healthResponse struct {
	Status     string         `json:"status"`
	Version    string         `json:"version"`
	Footprints map[string]int `json:"footprints"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	counts := map[string]int{}
	if s.opts.V2 != nil {
		counts[string(pact.RevisionV2)] = s.opts.V2.Len()
	}
	if s.opts.V3 != nil {
		counts[string(pact.RevisionV3)] = s.opts.V3.Len()
	}
	api.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: s.opts.Version, Footprints: counts})
}
