// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestInitTracer(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		endpoint    string
	}{
		{"valid configuration", "quizbank-test", "localhost:4318"},
		{"empty service name", "", "localhost:4318"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tp, err := InitTracer(ctx, tt.serviceName, "test", tt.endpoint)
			if err != nil {
				t.Fatalf("InitTracer: %v", err)
			}
			if otel.GetTracerProvider() != tp {
				t.Error("global tracer provider should be the new provider")
			}

			// Nothing listens on the endpoint, so the final export may fail;
			// only the call itself is under test.
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = Shutdown(shutdownCtx, tp)
		})
	}
}

func TestShutdownNil(t *testing.T) {
	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown(nil): %v", err)
	}
}
