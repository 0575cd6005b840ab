// Package repository implements data access over *sql.DB for users,
// refresh tokens, events and leads.
package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row, including rows
	// that exist but belong to another user. Callers surface it as 404 so
	// ownership is never distinguishable from absence.
	ErrNotFound = errors.New("record not found")

	// ErrEmailExists is returned on a duplicate users.email insert.
	ErrEmailExists = errors.New("email already exists")

	// ErrTokenConsumed is returned when a refresh token existed at lookup
	// time but was already deleted by a concurrent consume. Exactly one
	// caller wins the conditional delete.
	ErrTokenConsumed = errors.New("refresh token already consumed")
)
