package transport

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/muhammadheryan/event-ticket/application/user"
	"github.com/muhammadheryan/event-ticket/constant"
	utilsContext "github.com/muhammadheryan/event-ticket/utils/context"
	"github.com/muhammadheryan/event-ticket/utils/errors"
)

// AuthMiddleware returns a middleware that validates JWT sessions using UserApp.
// Routes listed in isPublicRoute pass through without a token.
func AuthMiddleware(userApp user.UserApp) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
				return
			}

			userID, err := userApp.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
				return
			}

			next.ServeHTTP(w, r.WithContext(utilsContext.WithUserID(r.Context(), userID)))
		})
	}
}

// isPublicRoute reports whether a request can be served without a session.
// Internal routes carry their own key check.
func isPublicRoute(method, path string) bool {
	if strings.HasPrefix(path, "/swagger/") || strings.HasPrefix(path, "/internal/") {
		return true
	}

	switch path {
	case "/", "/metrics", "/api/users/register", "/api/users/login",
		"/payment", "/payment/verify", "/callback_url":
		return true
	}

	// browsing events is open, creating them is not
	if method == http.MethodGet && (path == "/api/events" || strings.HasPrefix(path, "/api/events/")) {
		return true
	}

	return false
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
