package transport

import (
	"crypto/subtle"
	"net/http"

	"github.com/muhammadheryan/event-ticket/constant"
	"github.com/muhammadheryan/event-ticket/utils/errors"
)

// InternalMiddleware checks for the static internal API key in the Authorization header.
// An empty key disables the internal routes entirely.
func InternalMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
