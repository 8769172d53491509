package models

// User is an account record. ID is a Mongo ObjectID hex string or a
// Postgres UUID depending on the configured user store.
type User struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Password       string   `json:"-"` // bcrypt hash, never serialize
	Email          string   `json:"email,omitempty"`
	Birthday       string   `json:"birthday,omitempty"`
	FavoriteMovies []string `json:"favoriteMovies"`
}

// RegisterRequest is the body for POST /users.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=5,max=50"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Birthday string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
}

// LoginRequest is the body for POST /login, accepted as JSON or form data.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest is the body for PUT /users/{username}. Empty fields are left unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,alphanum,min=5,max=50"`
	Password *string `json:"password" validate:"omitempty,min=8,maxbytes=72"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Birthday *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
}

// UserUpdate carries already-validated changes to the store. Password is a hash.
type UserUpdate struct {
	Username *string
	Password *string
	Email    *string
	Birthday *string
}
