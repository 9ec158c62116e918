package transport

import (
	"net/http"
	"strings"

	"github.com/muhammadheryan/event-ticket/constant"
	"github.com/muhammadheryan/event-ticket/utils/errors"
)

// CORSMiddleware allows browser calls from the configured frontend origins.
// It wraps the whole router so preflight requests are answered before route matching.
// Requests without an Origin header (the payment gateway, curl) pass through untouched.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := allowed[strings.TrimSuffix(origin, "/")]; !ok && !allowAll {
				writeError(w, errors.SetCustomErrorWithDetails(constant.ErrForbidden, "origin not allowed"))
				return
			}

			h := w.Header()
			// a wildcard never carries credentials; browsers reject that pairing
			if allowAll {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
