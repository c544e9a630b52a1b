// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/fitline/internal/middleware"
	"github.com/tomtom215/fitline/internal/models"
)

// Router wires handlers to routes.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter returns a router for h.
func NewRouter(h *Handler, mw *Middleware) *Router {
	return &Router{handler: h, middleware: mw}
}

// Setup builds the chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, &models.APIError{Code: ErrCodeNotFound, Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, &models.APIError{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/recommendations", router.handler.Recommendations)
			r.Get("/style-profile", router.handler.StyleProfile)
			r.Post("/interactions", router.handler.RecordInteraction)
			r.Post("/wardrobe", router.handler.AddWardrobeItem)
		})

		r.Route("/visual", func(r chi.Router) {
			r.Post("/similar", router.handler.SimilarByImage)
			r.Get("/items/{itemID}/similar", router.handler.SimilarByItem)
			r.Post("/items", router.handler.IndexItem)
		})

		r.Get("/catalog/items", router.handler.ListCatalog)
	})

	return r
}
