// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/ai/ask", nil)
	req.RemoteAddr = remote
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimitMemory(t *testing.T) {
	mw, err := RateLimit("2-M", nil)
	if err != nil {
		t.Fatalf("RateLimit: %v", err)
	}
	handler := mw(okHandler())

	// First 2 requests should succeed.
	for i := 0; i < 2; i++ {
		rr := hit(handler, "192.168.1.1:12345")
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, rr.Code)
		}
		if rr.Header().Get("X-RateLimit-Limit") != "2" {
			t.Errorf("X-RateLimit-Limit: got %q", rr.Header().Get("X-RateLimit-Limit"))
		}
	}

	rr := hit(handler, "192.168.1.1:12345")
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("got status %d, want 429", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "too many requests") {
		t.Errorf("body: got %q", rr.Body.String())
	}

	// A different client has its own budget.
	if rr := hit(handler, "10.0.0.9:1"); rr.Code != http.StatusOK {
		t.Errorf("other client: got status %d, want 200", rr.Code)
	}
}

func TestRateLimitInvalidRate(t *testing.T) {
	if _, err := RateLimit("lots", nil); err == nil {
		t.Fatal("expected error for malformed rate")
	}
}

// TestRateLimitValkey runs against a live Valkey and is skipped when none
// is reachable.
func TestRateLimitValkey(t *testing.T) {
	host := os.Getenv("VALKEY_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("VALKEY_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{Addr: host + ":" + port, DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, rateLimitPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	mw, err := RateLimit("1-M", client)
	if err != nil {
		t.Fatalf("RateLimit: %v", err)
	}
	handler := mw(okHandler())

	remote := "203.0.113.7:4000"
	if rr := hit(handler, remote); rr.Code != http.StatusOK {
		t.Fatalf("first request: got %d", rr.Code)
	}
	if rr := hit(handler, remote); rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", rr.Code)
	}
}

// Rotating a forged X-Forwarded-For must not buy a fresh budget.
func TestRateLimitIgnoresForwardedHeaders(t *testing.T) {
	mw, err := RateLimit("1-M", nil)
	if err != nil {
		t.Fatalf("RateLimit: %v", err)
	}
	handler := mw(okHandler())

	for i, forged := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/ask", nil)
		req.RemoteAddr = "198.51.100.4:5000"
		req.Header.Set("X-Forwarded-For", forged)
		req.Header.Set("X-Real-IP", forged)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		want := http.StatusTooManyRequests
		if i == 0 {
			want = http.StatusOK
		}
		if rr.Code != want {
			t.Errorf("request %d (xff %s): got %d, want %d", i+1, forged, rr.Code, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for ignored",
			xff:        "10.0.0.1, 172.16.0.1",
			remoteAddr: "192.168.1.1:1234",
			want:       "192.168.1.1",
		},
		{
			name:       "x-real-ip ignored",
			xri:        "10.0.0.2",
			remoteAddr: "192.168.1.1:1234",
			want:       "192.168.1.1",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
