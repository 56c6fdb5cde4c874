package router

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

type rateLimitedResponse struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}

func middlewareRateLimit(limiter Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			if !strings.HasPrefix(route, "/api/") || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			client := r.RemoteAddr
			if client == "" {
				client = "unknown"
			}

			d, err := limiter.Allow(r.Context(), client, route)
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter unavailable, allowing request", "route", route, "error", err)
			}

			if !d.Allowed {
				retry := int(d.RetryAfter.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeJSON(w, rateLimitedResponse{
					Message:    "Too many requests. Limit: " + strconv.Itoa(d.Limit) + " per minute",
					Error:      "rate_limited",
					RetryAfter: retry,
				}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
