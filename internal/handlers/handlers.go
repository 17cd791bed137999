// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers exposes the question bank as a JSON API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"quizbank/internal/apperror"
	"quizbank/internal/bank"
)

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves every API route.
type Handler struct {
	bank *bank.Bank
	db   Pinger
}

// New returns a Handler.
func New(b *bank.Bank, db Pinger) *Handler {
	return &Handler{bank: b, db: db}
}

// Routes registers the API on r. aiLimit, when non-nil, wraps the routes
// that call the explanation generator.
func (h *Handler) Routes(r chi.Router, aiLimit func(http.Handler) http.Handler) {
	if aiLimit == nil {
		aiLimit = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.CategoryTree)
			r.Post("/", h.CategoryCreate)
			r.Get("/search", h.CategorySearch)
			r.Get("/{id}", h.CategoryGet)
			r.Put("/{id}", h.CategoryUpdate)
			r.Delete("/{id}", h.CategoryDelete)
			r.Get("/{id}/path", h.CategoryPath)
			r.Get("/{id}/descendants", h.CategoryDescendants)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", h.QuestionList)
			r.Post("/", h.QuestionCreate)
			r.Get("/search", h.QuestionSearch)
			r.Get("/{id}", h.QuestionGet)
			r.Put("/{id}", h.QuestionUpdate)
			r.Delete("/{id}", h.QuestionDelete)
			r.With(aiLimit).Post("/{id}/explanation", h.QuestionExplain)
			r.Post("/{id}/tags/{tagID}", h.QuestionAddTag)
			r.Delete("/{id}/tags/{tagID}", h.QuestionRemoveTag)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.TagList)
			r.Post("/", h.TagCreate)
			r.Get("/search", h.TagSearch)
			r.Get("/{id}", h.TagGet)
			r.Delete("/{id}", h.TagDelete)
		})

		r.Get("/search", h.SearchAll)
		r.With(aiLimit).Post("/ai/ask", h.Ask)

		r.Route("/pending-questions", func(r chi.Router) {
			r.Get("/", h.PendingList)
			r.Get("/{id}", h.PendingGet)
			r.Post("/{id}/approve", h.PendingApprove)
			r.Post("/{id}/reject", h.PendingReject)
			r.Delete("/{id}", h.PendingReject)
		})
	})
}

// Health reports liveness and storage reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

// writeError maps err onto a status code. Internal errors are logged and
// their details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	body := errorBody{Error: http.StatusText(status)}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		body.Kind = string(appErr.Kind)
		body.Field = appErr.Field
		body.Error = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, body)
}

// pathID parses the named URL parameter as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperror.Validation(name, "must be a UUID")
	}
	return id, nil
}

// queryID parses an optional UUID query parameter.
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation(name, "must be a UUID")
	}
	return &id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation(name, "must be an integer")
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperror.Validation(name, "must be true or false")
	}
	return b, nil
}
