// Package memstore is an in-memory implementation of the user, movie and
// poster stores, used by tests and local runs without backing services.
package memstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ayush/myflix/internal/common"
	"github.com/ayush/myflix/internal/models"
	"github.com/ayush/myflix/internal/store"
)

type poster struct {
	data        []byte
	contentType string
}

// Store keeps everything in maps guarded by a mutex. Setting Err makes every
// call fail with it.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	movies  map[string]*models.Movie
	posters map[string]poster

	Err error
}

func New() *Store {
	return &Store{
		users:   map[string]*models.User{},
		movies:  map[string]*models.Movie{},
		posters: map[string]poster{},
	}
}

// ── Users ───────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.byUsername(u.Username) != nil {
		return nil, common.ErrAlreadyExists
	}

	created := *u
	created.ID = uuid.NewString()
	created.FavoriteMovies = []string{}
	s.users[created.ID] = &created
	return clone(&created), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u := s.byUsername(username)
	if u == nil {
		return nil, common.ErrNotFound
	}
	return clone(u), nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(u), nil
}

func (s *Store) UpdateUser(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if upd.Username != nil {
		if other := s.byUsername(*upd.Username); other != nil && other.ID != id {
			return nil, common.ErrAlreadyExists
		}
		u.Username = *upd.Username
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Birthday != nil {
		u.Birthday = *upd.Birthday
	}
	return clone(u), nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) AddFavorite(_ context.Context, userID, movieID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	for _, id := range u.FavoriteMovies {
		if id == movieID {
			return clone(u), nil
		}
	}
	u.FavoriteMovies = append(u.FavoriteMovies, movieID)
	return clone(u), nil
}

func (s *Store) RemoveFavorite(_ context.Context, userID, movieID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	kept := u.FavoriteMovies[:0]
	for _, id := range u.FavoriteMovies {
		if id != movieID {
			kept = append(kept, id)
		}
	}
	u.FavoriteMovies = kept
	return clone(u), nil
}

func (s *Store) byUsername(username string) *models.User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func clone(u *models.User) *models.User {
	c := *u
	c.FavoriteMovies = append([]string{}, u.FavoriteMovies...)
	return &c
}

// ── Movies ──────────────────────────────────────────────────

// AddMovie stores m, assigning an id when it has none, and returns the stored copy.
func (s *Store) AddMovie(m models.Movie) models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.movies[m.ID] = &m
	return m
}

func (s *Store) ListMovies(_ context.Context) ([]models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]models.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *Store) GetMovieByTitle(_ context.Context, title string) (*models.Movie, error) {
	return s.findMovie(func(m *models.Movie) bool { return m.Title == title })
}

func (s *Store) GetMovieByID(_ context.Context, id string) (*models.Movie, error) {
	return s.findMovie(func(m *models.Movie) bool { return m.ID == id })
}

func (s *Store) GetGenre(_ context.Context, name string) (*models.Genre, error) {
	m, err := s.findMovie(func(m *models.Movie) bool { return m.Genre.Name == name })
	if err != nil {
		return nil, err
	}
	return &m.Genre, nil
}

func (s *Store) GetDirector(_ context.Context, name string) (*models.Director, error) {
	m, err := s.findMovie(func(m *models.Movie) bool { return m.Director.Name == name })
	if err != nil {
		return nil, err
	}
	return &m.Director, nil
}

func (s *Store) findMovie(match func(*models.Movie) bool) (*models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, m := range s.movies {
		if match(m) {
			c := *m
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

// ── Posters ─────────────────────────────────────────────────

// PutPoster stores an image under key.
func (s *Store) PutPoster(key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posters[key] = poster{data: data, contentType: contentType}
}

func (s *Store) Open(_ context.Context, key string) (*store.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.posters[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &store.Object{
		ReadCloser:  io.NopCloser(bytes.NewReader(p.data)),
		ContentType: p.contentType,
		Size:        int64(len(p.data)),
	}, nil
}
