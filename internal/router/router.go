// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the middleware chain in front of the API routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"quizbank/internal/middleware"
)

// API registers routes on a router. aiLimit wraps the routes that call the
// language model.
type API interface {
	Routes(r chi.Router, aiLimit func(http.Handler) http.Handler)
}

// Options configures the global middleware.
type Options struct {
	CORSOrigins []string
	// TrustProxy rewrites RemoteAddr from X-Forwarded-For / X-Real-IP
	// before anything else sees the request.
	TrustProxy bool
	// AILimit throttles generator-backed routes. Nil disables throttling.
	AILimit func(http.Handler) http.Handler
}

// New creates the Chi router with global middleware applied and api mounted.
func New(api API, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, outermost first.
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(middleware.Tracing)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(opts.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	api.Routes(r, opts.AILimit)
	return r
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
