// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The email doubles as the login handle — it is unique and immutable after
// signup (there is no change-email endpoint). PasswordHash is the bcrypt
// digest of the user's password; the plaintext is never stored anywhere.
//
// WHY RefreshToken string (not *string)?
// The column is nullable in the database, but in Go an empty string is a
// perfectly good "no active session" zero value — simpler to work with than
// a pointer, and a presented token can never equal "". The repository maps
// NULL to "" on the way out and "" back to NULL on the way in.
//
// RefreshToken is a single-slot session: at most one live refresh token per
// user. Every successful login or refresh overwrites it, which invalidates
// whatever token was in the slot before.
type User struct {
	ID           string    `json:"id"    db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-"     db:"password_hash"` // never serialized
	RefreshToken string    `json:"-"     db:"refresh_token"` // "" = no active session
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
