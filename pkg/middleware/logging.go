package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"beacon/pkg/logging"
)

// RequestLogger injects a request-scoped child logger into the context and
// logs the incoming request. Handlers retrieve it with logging.FromContext.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			reqLog := log.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				logging.RequestID(requestID),
			)

			ctx := logging.WithContext(r.Context(), reqLog)
			w.Header().Set("X-Request-ID", requestID)

			reqLog.Info("request started")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
