// Package users serves registration and the owner-only account endpoints.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ayush/myflix/internal/auth"
	"github.com/ayush/myflix/internal/common"
	"github.com/ayush/myflix/internal/httputil"
	"github.com/ayush/myflix/internal/models"
	"github.com/ayush/myflix/internal/validation"
)

// Store is the write side of the user store.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	AddFavorite(ctx context.Context, userID, movieID string) (*models.User, error)
	RemoveFavorite(ctx context.Context, userID, movieID string) (*models.User, error)
}

// MovieLookup checks that a movie exists before it is favorited.
type MovieLookup interface {
	GetMovieByID(ctx context.Context, id string) (*models.Movie, error)
}

// Handler holds user HTTP handlers.
type Handler struct {
	store  Store
	movies MovieLookup
	hasher auth.Hasher
	log    logrus.FieldLogger
}

func NewHandler(store Store, movies MovieLookup, hasher auth.Hasher, log logrus.FieldLogger) *Handler {
	return &Handler{store: store, movies: movies, hasher: hasher, log: log}
}

// Register creates an account from {username, password, email, birthday}.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, validation.Message(err))
		return
	}
	if err := validation.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validation.Message(err))
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.log.WithError(err).Error("hash password")
		httputil.WriteInternalError(w)
		return
	}

	user, err := h.store.CreateUser(r.Context(), &models.User{
		Username: req.Username,
		Password: hash,
		Email:    req.Email,
		Birthday: req.Birthday,
	})
	if errors.Is(err, common.ErrAlreadyExists) {
		httputil.WriteMessage(w, http.StatusConflict, req.Username+" already exists")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("username", req.Username).Error("create user")
		httputil.WriteInternalError(w)
		return
	}

	h.log.WithField("username", user.Username).Info("user registered")
	httputil.WriteJSON(w, http.StatusCreated, user)
}

// Get returns the caller's own account.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, auth.GenericFailureMessage)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// Update applies a partial update to the caller's account. A new password is
// hashed before it reaches the store.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, auth.GenericFailureMessage)
		return
	}

	var req models.UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, validation.Message(err))
		return
	}
	if err := validation.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validation.Message(err))
		return
	}

	upd := models.UserUpdate{Username: req.Username, Email: req.Email, Birthday: req.Birthday}
	if req.Password != nil {
		hash, err := h.hasher.Hash(*req.Password)
		if err != nil {
			h.log.WithError(err).Error("hash password")
			httputil.WriteInternalError(w)
			return
		}
		upd.Password = &hash
	}

	updated, err := h.store.UpdateUser(r.Context(), user.ID, upd)
	if err != nil {
		h.writeStoreError(w, err, user.Username, "update user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// Delete removes the caller's account.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, auth.GenericFailureMessage)
		return
	}

	if err := h.store.DeleteUser(r.Context(), user.ID); err != nil {
		h.writeStoreError(w, err, user.Username, "delete user")
		return
	}

	h.log.WithField("username", user.Username).Info("user deleted")
	httputil.WriteMessage(w, http.StatusOK, fmt.Sprintf("%s was deleted", user.Username))
}

// AddFavorite adds {movieID} to the caller's favorites. Adding a movie twice keeps one copy.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, auth.GenericFailureMessage)
		return
	}
	movieID := chi.URLParam(r, "movieID")

	if _, err := h.movies.GetMovieByID(r.Context(), movieID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			httputil.WriteNotFound(w, "movie not found")
			return
		}
		h.log.WithError(err).WithField("movie_id", movieID).Error("look up movie")
		httputil.WriteInternalError(w)
		return
	}

	updated, err := h.store.AddFavorite(r.Context(), user.ID, movieID)
	if err != nil {
		h.writeStoreError(w, err, user.Username, "add favorite")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// RemoveFavorite drops {movieID} from the caller's favorites.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, auth.GenericFailureMessage)
		return
	}

	updated, err := h.store.RemoveFavorite(r.Context(), user.ID, chi.URLParam(r, "movieID"))
	if err != nil {
		h.writeStoreError(w, err, user.Username, "remove favorite")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, username, op string) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		httputil.WriteNotFound(w, "user not found")
	case errors.Is(err, common.ErrAlreadyExists):
		httputil.WriteMessage(w, http.StatusConflict, "username already taken")
	default:
		h.log.WithError(err).WithField("username", username).Error(op)
		httputil.WriteInternalError(w)
	}
}
