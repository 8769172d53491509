package common

import "errors"

var (
	// store errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// request errors
	ErrValidation = errors.New("validation error")
)
