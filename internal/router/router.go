// Package router sets up all HTTP routes and middleware chains for the
// taxonomy service. Everything under /api carries bearer-token auth and
// per-IP rate limiting; the health probe stays open.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taxonomy/internal/handlers"
	"taxonomy/internal/middleware"
)

// Limit API traffic per client IP. The limiter mainly slows down token
// guessing; legitimate admin UIs stay far below it.
const (
	rateLimit  = 600
	rateWindow = time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(apiToken string, categories *handlers.Categories, relations *handlers.Relations) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check — no auth.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		limiter := middleware.NewRateLimiter(rateLimit, rateWindow)
		r.Use(limiter.Middleware)
		r.Use(middleware.RequireToken(apiToken))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categories.List)
			r.Post("/", categories.Create)
			r.Get("/tree", categories.Tree)
			r.Get("/roots", categories.Roots)
			r.Get("/leaves", categories.Leaves)
			r.Get("/{id}", categories.Detail)
			r.Put("/{id}", categories.Update)
			r.Delete("/{id}", categories.Delete)
			r.Put("/{id}/parent", categories.Reparent)
			r.Get("/{id}/descendants", categories.Descendants)
			r.Get("/{id}/valid-parents", categories.ValidParents)
		})

		r.Route("/owners/{type}/{id}/categories", func(r chi.Router) {
			r.Get("/", relations.List)
			r.Post("/", relations.Add)
			r.Put("/", relations.Replace)
			r.Delete("/", relations.Clear)
			r.Delete("/{categoryID}", relations.Remove)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
