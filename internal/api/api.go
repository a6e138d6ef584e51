// SPDX-License-Identifier: MIT

// Package api implements the daemon's HTTP surface: spec validation and
// expansion endpoints plus a read-only view of the library index.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airrkit/airrspec/internal/audit"
	"github.com/airrkit/airrspec/internal/cache"
	"github.com/airrkit/airrspec/internal/config"
	"github.com/airrkit/airrspec/internal/health"
	"github.com/airrkit/airrspec/internal/library"
)

// APIVersion is reported in the X-API-Version response header on /v1 routes.
const APIVersion = "1"

// Server wires the HTTP handlers to their dependencies.
type Server struct {
	snap    config.Snapshot
	version string
	library *library.Service
	cache   cache.Cache
	health  *health.Manager
	audit   *audit.Logger
}

// NewServer constructs the API server. The cache must not be nil; pass a
// cache.NoOpCache to disable caching.
func NewServer(snap config.Snapshot, version string, lib *library.Service, c cache.Cache, hm *health.Manager) *Server {
	return &Server{
		snap:    snap,
		version: version,
		library: lib,
		cache:   c,
		health:  hm,
		audit:   audit.NewLogger(),
	}
}

// Handler returns the fully wired root handler. Probe and metrics endpoints
// stay outside the /v1 group so they are never rate limited or authenticated.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(requestLogger)
	if s.snap.App.Metrics.Enabled {
		r.Use(httpMetrics())
	}
	r.Use(tracing(s.snap.App.LogService))

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	if s.snap.App.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(apiVersionHeader)
		if s.snap.App.API.RateLimit > 0 {
			r.Use(rateLimit(s.snap.App.API.RateLimit, s.snap.App.API.RateLimitWindow))
		}
		r.Use(maxBody(s.snap.App.API.MaxBodyBytes))
		r.Use(s.authMiddleware)

		r.Post("/validate", s.handleValidate)
		r.Post("/expand", s.handleExpand)

		r.Route("/library", func(r chi.Router) {
			r.Get("/", s.handleLibraryList)
			r.Get("/roots", s.handleLibraryRoots)
			r.Post("/roots/{rootID}/rescan", s.handleLibraryRescan)
			r.Get("/roots/{rootID}/items", s.handleLibraryRootItems)
			r.Get("/{digest}", s.handleLibraryItem)
		})
	})

	return r
}
