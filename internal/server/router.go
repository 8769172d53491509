// Package server assembles the HTTP router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/ayush/myflix/internal/auth"
	"github.com/ayush/myflix/internal/httputil"
	"github.com/ayush/myflix/internal/logging"
	"github.com/ayush/myflix/internal/metrics"
	"github.com/ayush/myflix/internal/middleware"
	"github.com/ayush/myflix/internal/movies"
	"github.com/ayush/myflix/internal/users"
)

// WelcomeMessage is served at GET /.
const WelcomeMessage = "Welcome to myFlix!"

// Deps are the handlers and shared services the router mounts.
type Deps struct {
	Log         logrus.FieldLogger
	Metrics     *metrics.Metrics
	CORSOrigins []string

	Login  *auth.Handler
	Bearer auth.Strategy
	Users  *users.Handler
	Movies *movies.Handler
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Middleware(d.Log))
	r.Use(middleware.Recover(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(WelcomeMessage))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	// public
	r.Post("/login", d.Login.Login)
	r.Post("/users", d.Users.Register)

	// bearer token required
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Bearer, d.Log))

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", d.Movies.List)
			r.Get("/{title}", d.Movies.GetByTitle)
			r.Get("/{title}/image", d.Movies.Image)
			r.Get("/genre/{name}", d.Movies.GetGenre)
			r.Get("/directors/{name}", d.Movies.GetDirector)
		})

		r.Route("/users/{username}", func(r chi.Router) {
			r.Use(middleware.RequireOwner("username"))
			r.Get("/", d.Users.Get)
			r.Put("/", d.Users.Update)
			r.Delete("/", d.Users.Delete)
			r.Post("/movies/{movieID}", d.Users.AddFavorite)
			r.Delete("/movies/{movieID}", d.Users.RemoveFavorite)
		})
	})

	return r
}
