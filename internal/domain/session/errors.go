package session

import "errors"

var (
	// ErrInvalidSession indicates a session without an access token.
	ErrInvalidSession = errors.New("invalid session")
	// ErrInvalidInput indicates missing credentials or registration fields.
	ErrInvalidInput = errors.New("invalid session input")
	// ErrNotLoggedIn indicates there is no stored session.
	ErrNotLoggedIn = errors.New("not logged in")
)
