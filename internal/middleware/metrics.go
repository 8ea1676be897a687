package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mentorship-platform/internal/metrics"
)

// unmatchedRoute labels requests that matched no chi route (404s), so random
// scanner paths do not each get their own time series.
const unmatchedRoute = "unmatched"

// Metrics records a request counter and latency histogram per chi route pattern.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			// The pattern is only known after routing has happened.
			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.RecordRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
