// Package repository holds the storage errors shared by local stores.
package repository

import "errors"

var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("not found in local store")
	// ErrInvalidInput is returned for empty keys or values a store refuses.
	ErrInvalidInput = errors.New("invalid local store input")
	// ErrCorrupt is returned when a stored value can no longer be decoded.
	ErrCorrupt = errors.New("corrupt local store value")
)
