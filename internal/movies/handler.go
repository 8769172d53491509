// Package movies serves the read-only movie catalog.
package movies

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ayush/myflix/internal/common"
	"github.com/ayush/myflix/internal/httputil"
	"github.com/ayush/myflix/internal/models"
	"github.com/ayush/myflix/internal/store"
)

// Store is the catalog read side.
type Store interface {
	ListMovies(ctx context.Context) ([]models.Movie, error)
	GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error)
	GetGenre(ctx context.Context, name string) (*models.Genre, error)
	GetDirector(ctx context.Context, name string) (*models.Director, error)
}

// PosterStore opens poster images by object key.
type PosterStore interface {
	Open(ctx context.Context, key string) (*store.Object, error)
}

// Handler holds movie HTTP handlers.
type Handler struct {
	store   Store
	posters PosterStore
	log     logrus.FieldLogger
}

// NewHandler builds the handler. posters may be nil, in which case every
// image request is a 404.
func NewHandler(store Store, posters PosterStore, log logrus.FieldLogger) *Handler {
	return &Handler{store: store, posters: posters, log: log}
}

// List returns every movie sorted by title.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.store.ListMovies(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list movies")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, movies)
}

func (h *Handler) GetByTitle(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	movie, err := h.store.GetMovieByTitle(r.Context(), title)
	if err != nil {
		h.writeLookupError(w, err, "movie", title)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, movie)
}

func (h *Handler) GetGenre(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	genre, err := h.store.GetGenre(r.Context(), name)
	if err != nil {
		h.writeLookupError(w, err, "genre", name)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, genre)
}

func (h *Handler) GetDirector(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	director, err := h.store.GetDirector(r.Context(), name)
	if err != nil {
		h.writeLookupError(w, err, "director", name)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, director)
}

// Image streams the poster stored under the movie's imagePath.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	movie, err := h.store.GetMovieByTitle(r.Context(), title)
	if err != nil {
		h.writeLookupError(w, err, "movie", title)
		return
	}
	if h.posters == nil || movie.ImagePath == "" {
		httputil.WriteNotFound(w, "image not found")
		return
	}

	obj, err := h.posters.Open(r.Context(), movie.ImagePath)
	if errors.Is(err, common.ErrNotFound) {
		httputil.WriteNotFound(w, "image not found")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("key", movie.ImagePath).Error("open poster")
		httputil.WriteInternalError(w)
		return
	}
	defer obj.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj); err != nil {
		h.log.WithError(err).WithField("key", movie.ImagePath).Warn("stream poster")
	}
}

func (h *Handler) writeLookupError(w http.ResponseWriter, err error, kind, name string) {
	if errors.Is(err, common.ErrNotFound) {
		httputil.WriteNotFound(w, kind+" not found")
		return
	}
	h.log.WithError(err).WithField(kind, name).Error("look up " + kind)
	httputil.WriteInternalError(w)
}
