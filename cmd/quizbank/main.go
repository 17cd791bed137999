// Package main is the entry point for the quizbank API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"quizbank/internal/app"
	"quizbank/internal/config"
	"quizbank/internal/handlers"
	"quizbank/internal/mcpserver"
	"quizbank/internal/middleware"
	"quizbank/internal/router"
	"quizbank/internal/telemetry"
	"quizbank/internal/valkey"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(app.NewLogger(cfg))
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"db_driver", cfg.DBDriver,
	)

	ctx := context.Background()

	var tp *sdktrace.TracerProvider
	if cfg.OTELEnabled {
		tp, err = telemetry.InitTracer(ctx, cfg.ServiceName, version, cfg.OTELEndpoint)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		slog.Info("tracing enabled", "endpoint", cfg.OTELEndpoint)
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Valkey is optional; without it rate limit counters stay in memory.
	var valkeyClient *redis.Client
	if cfg.HasValkey() {
		valkeyClient, err = valkey.Connect(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
	} else {
		slog.Warn("valkey not configured, rate limits are per process")
	}

	aiLimit, err := middleware.RateLimit(cfg.AskRate, valkeyClient)
	if err != nil {
		slog.Error("invalid AI rate limit", "error", err)
		os.Exit(1)
	}

	r := router.New(handlers.New(a.Bank, a.Store), router.Options{
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		AILimit:     aiLimit,
	})

	// MCP tools can reach the generator, so they share the AI limit.
	r.With(aiLimit).Handle("/mcp", mcpserver.New(a.Bank, version).HTTPHandler())

	// WriteTimeout must cover the AI timeout on generator-backed routes.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.AITimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
		slog.Error("tracer shutdown failed", "error", err)
	}

	slog.Info("server stopped gracefully")
}
