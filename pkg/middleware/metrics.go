package middleware

import (
	"net/http"
	"time"

	"beacon/internal/platform/metrics"
)

// HTTPMetrics records request counts and latency per method/route/status.
// Pattern labels come from the mux pattern, not the raw path, so metric
// cardinality stays bounded.
func HTTPMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := r.Pattern
			if path == "" {
				path = r.URL.Path
			}
			m.ObserveHTTP(r.Method, path, wrapped.statusCode, time.Since(start))
		})
	}
}
