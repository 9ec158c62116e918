package transport

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/muhammadheryan/event-ticket/constant"
	utilsContext "github.com/muhammadheryan/event-ticket/utils/context"
	"github.com/muhammadheryan/event-ticket/utils/logger"
	"github.com/muhammadheryan/event-ticket/utils/metrics"
	"go.uber.org/zap"
)

// RequestIDMiddleware tags every response with X-Request-ID, including CORS
// rejections, preflights and unmatched routes. An inbound id is echoed back.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(constant.RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(constant.RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(utilsContext.WithRequestID(r.Context(), requestID)))
		})
	}
}

// LoggingMiddleware logs every matched request and records its latency by route template.
func LoggingMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := utilsContext.GetRequestID(r.Context())

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			// templates keep checkout ids and event ids out of metric labels
			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			metrics.TrackHTTPRequest(r.Method, route, wrapped.statusCode, duration)

			logger.Info(
				"HTTP request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
