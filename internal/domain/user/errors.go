package user

import "errors"

var (
	// ErrInvalidInput indicates an invalid user ID or empty update.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
)
