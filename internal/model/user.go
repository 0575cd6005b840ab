package model

import "time"

// User represents a row in the `users` table. JSON tags are omitted because
// handlers define their own response shapes and the password hash must never
// leave the process.
//
// Fields:
//  ID             – primary key identifier of the user.
//  Name           – display name.
//  Email          – unique email address.
//  HashedPassword – bcrypt hashed password.
//  IsActive       – whether the account is active.
//  CreatedAt      – timestamp of creation.
type User struct {
	ID             uint64    // users.id
	Name           string    // users.name
	Email          string    // users.email
	HashedPassword string    // users.hashed_password
	IsActive       bool      // users.is_active
	CreatedAt      time.Time // users.created_at
}

// RefreshToken mirrors the `refresh_tokens` table. Rows are immutable: a
// token is inserted once and only ever deleted (rotation, logout or expiry).
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	Token     string    // refresh_tokens.token (unique, opaque random value)
	UserID    uint64    // refresh_tokens.user_id
	CreatedAt time.Time // refresh_tokens.created_at
	ExpiresAt time.Time // refresh_tokens.expires_at
}
