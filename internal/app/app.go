// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package app assembles the services shared by the server and the admin CLI
// from a Config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"

	"quizbank/internal/ai"
	"quizbank/internal/bank"
	"quizbank/internal/config"
	"quizbank/internal/database"
	"quizbank/internal/store"
)

// App owns the database handle and the services built on it.
type App struct {
	DB    *sqlx.DB
	Store *store.Store
	AI    *ai.Registry
	Bank  *bank.Bank
}

// NewLogger returns a JSON logger in production and a text logger
// elsewhere, at the configured level.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.Env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// Open connects to the database, applies migrations and builds the bank.
// Development databases are seeded on first use.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Connect(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.IsDev() {
		if err := database.Seed(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	registry := NewRegistry(cfg)
	slog.Info("ai providers initialized",
		"active", registry.ActiveName(),
		"available", registry.Available(),
	)

	// A nil Generator interface, not a nil *ai.Assistant, marks AI as off.
	var gen bank.Generator
	if registry.HasProvider(registry.ActiveName()) {
		gen = ai.NewAssistant(registry, registry, cfg.AITimeout)
	} else {
		slog.Warn("active ai provider has no API key, AI features disabled", "provider", cfg.AIProvider)
	}

	st := store.New(db)
	return &App{
		DB:    db,
		Store: st,
		AI:    registry,
		Bank:  bank.New(st, gen),
	}, nil
}

// NewRegistry builds the provider registry from every configured key.
func NewRegistry(cfg *config.Config) *ai.Registry {
	return ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini":  {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL},
		"claude":  {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	})
}

// Close releases the database handle.
func (a *App) Close() error {
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
