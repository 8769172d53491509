package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ayush/myflix/internal/auth"
	"github.com/ayush/myflix/internal/httputil"
)

// OwnershipMessage is sent with 403 when the caller acts on another user's resource.
const OwnershipMessage = "you may only access your own account"

// RequireAuth is middleware that runs strategy on each request and injects the
// authenticated user into the request context. Rejections answer 401 with the
// generic message; strategy errors answer 500.
func RequireAuth(strategy auth.Strategy, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome, err := strategy.Authenticate(r)
			if err != nil {
				log.WithError(err).WithField("strategy", strategy.Name()).Error("authenticate request")
				httputil.WriteInternalError(w)
				return
			}
			if !outcome.Authenticated() {
				httputil.WriteUnauthorized(w, auth.GenericFailureMessage)
				return
			}

			ctx := auth.WithIdentity(r.Context(), outcome.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner rejects with 403 unless the authenticated user's username
// equals the named path parameter. It must run after RequireAuth.
func RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, auth.GenericFailureMessage)
				return
			}
			if user.Username != chi.URLParam(r, param) {
				httputil.WriteForbidden(w, OwnershipMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
