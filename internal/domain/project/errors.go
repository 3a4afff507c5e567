package project

import "errors"

var (
	// ErrProjectNotFound is returned when the backend answers 404 or a null
	// detail payload.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput rejects non-positive IDs and unnamed projects before any
	// request is sent.
	ErrInvalidInput = errors.New("invalid project input")
)
