package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/myflix/internal/auth"
	"github.com/ayush/myflix/internal/logging"
	"github.com/ayush/myflix/internal/models"
)

// stubStrategy returns a fixed outcome.
type stubStrategy struct {
	out auth.Outcome
	err error
}

func (s stubStrategy) Name() string { return "stub" }

func (s stubStrategy) Authenticate(*http.Request) (auth.Outcome, error) { return s.out, s.err }

func echoUser(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(u.Username))
}

func TestRequireAuth(t *testing.T) {
	alice := &models.User{ID: "u-1", Username: "alice"}

	tests := []struct {
		name     string
		strategy stubStrategy
		wantCode int
		wantBody string
	}{
		{"authenticated", stubStrategy{out: auth.Outcome{User: alice}}, http.StatusOK, "alice"},
		{"rejected", stubStrategy{out: auth.Outcome{Reason: auth.ReasonExpired}}, http.StatusUnauthorized, `{"message":"invalid credentials"}`},
		{"strategy error", stubStrategy{err: errors.New("store down")}, http.StatusInternalServerError, `{"message":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireAuth(tt.strategy, logging.Discard())(http.HandlerFunc(echoUser))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/movies", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequireAuth_ChallengeHeader(t *testing.T) {
	h := RequireAuth(stubStrategy{out: auth.Outcome{Reason: auth.ReasonMalformed}}, logging.Discard())(http.HandlerFunc(echoUser))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/movies", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestRequireOwner(t *testing.T) {
	alice := &models.User{ID: "u-1", Username: "alice"}
	authed := RequireAuth(stubStrategy{out: auth.Outcome{User: alice}}, logging.Discard())

	r := chi.NewRouter()
	r.With(authed, RequireOwner("username")).Get("/users/{username}", echoUser)
	r.With(RequireOwner("username")).Get("/anon/{username}", echoUser)

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/users/alice", http.StatusOK},
		{"/users/bob", http.StatusForbidden},
		{"/users/Alice", http.StatusForbidden},
		{"/anon/alice", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
