package middleware

import (
	"fmt"
	"net/http"
	"time"

	"gn-registry/internal/metrics"
)

// Metrics records request counts and latency. Status is bucketed to its
// class (2xx, 4xx, 5xx) to keep label cardinality bounded.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			class := fmt.Sprintf("%dxx", wrapped.status/100)
			m.HTTPRequests.WithLabelValues(r.Method, class).Inc()
			m.HTTPDuration.WithLabelValues(r.Method).Observe(time.Since(started).Seconds())
		})
	}
}
