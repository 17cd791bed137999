// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// rateLimitPrefix namespaces limiter keys in Valkey.
const rateLimitPrefix = "quizbank:ratelimit"

// RateLimit returns middleware limiting each client IP to rate, written in
// limiter's "<limit>-<period>" form (e.g. "10-M"). Counters live in Valkey
// when client is non-nil, so every instance shares them; otherwise they are
// kept in process memory.
func RateLimit(rate string, client *redis.Client) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}

	var store limiter.Store
	if client != nil {
		store, err = redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("create rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, parsed),
		stdlibmw.WithKeyGetter(clientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("rate limit reached", "remote", clientIP(r), "path", r.URL.Path)
			writeJSONError(w, http.StatusTooManyRequests, "too many requests")
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("rate limiter failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
		}),
	)
	return mw.Handler, nil
}

// clientIP keys the limiter on the connection's peer address. Forwarded
// headers are client-controlled and ignored here; behind a trusted proxy
// chi's RealIP middleware rewrites RemoteAddr before this runs.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
