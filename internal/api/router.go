// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anupam-talentica/bookreview-client/internal/logging"
	"github.com/anupam-talentica/bookreview-client/internal/middleware"
)

// Router wires handlers and middleware into the local HTTP surface.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router over the given handler and middleware factory.
func NewRouter(handler *Handler, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can be used with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes using the Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // X-Request-ID header plus logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Session Endpoints
	// ========================
	// Credential endpoints carry the strictest limits; the rest of the
	// session group is merely tight.
	r.Route("/api/v1/session", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitSession())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/", router.handler.Session)
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/register", router.handler.Register)
		r.Post("/logout", router.handler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(router.requireSession)
			r.Get("/profile", router.handler.Profile)
			r.Put("/profile", router.handler.UpdateProfile)
			r.Put("/password", router.handler.ChangePassword)
		})
	})

	// ========================
	// View Endpoints
	// ========================
	// Cached reads; permissive limits so a dashboard load can fan out.
	// Compression pays off here: view payloads are the big ones.
	r.Route("/api/v1/views", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitViews())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/home", router.handler.HomeView)
		r.Get("/books", router.handler.BooksView)
		r.Get("/books/{bookID}", router.handler.BookDetailView)
		r.Get("/search", router.handler.SearchView)

		r.Group(func(r chi.Router) {
			r.Use(router.requireSession)
			r.Get("/favorites", router.handler.FavoritesView)
			r.Get("/my-reviews", router.handler.MyReviewsView)
			r.Get("/recommendations", router.handler.RecommendationsView)
			r.Post("/recommendations/refresh", router.handler.RefreshRecommendations)
		})
	})

	// ========================
	// Mutation Endpoints
	// ========================
	// All writes require a session and write through to the backend.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitMutations())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.requireSession)

		r.Put("/books/{bookID}/favorite", router.handler.AddFavorite)
		r.Delete("/books/{bookID}/favorite", router.handler.RemoveFavorite)
		r.Post("/books/{bookID}/reviews", router.handler.CreateReview)
		r.Put("/reviews/{reviewID}", router.handler.UpdateReview)
		r.Delete("/reviews/{reviewID}", router.handler.DeleteReview)
		r.Post("/recommendations/{recommendationID}/feedback", router.handler.RecommendationFeedback)
	})

	// ========================
	// WebSocket Endpoint
	// ========================
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitWebSocket())
		r.Get("/", router.handler.WebSocket)
	})

	// Prometheus metrics (no envelope, no rate limit; scraped locally)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requireSession gates personal endpoints on the daemon's session state.
// Without a signed-in session the dashboard gets 401 AUTH_REQUIRED and shows
// its login view; nothing is forwarded.
func (router *Router) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !router.handler.session.State().IsAuthenticated {
			logging.Ctx(r.Context()).Debug().
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg("Rejected unauthenticated request")
			NewResponseWriter(w, r).AuthRequired()
			return
		}
		next.ServeHTTP(w, r)
	})
}
