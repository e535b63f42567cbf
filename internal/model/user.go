package model

import "time"

// User represents an account as stored in the `users` table. Records are
// created at signup and never updated or deleted by the auth flows. Username
// and Email are unique; Email is stored lower-cased and the plaintext password
// is never persisted.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}

// UserSummary is the public projection of a user returned by login.
type UserSummary struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Summary strips the credential fields.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}

// RevocationEntry models a row in `token_blacklist`. Only the SHA-256 hex
// digest of the bearer token is stored. An entry is meaningful until
// ExpiresAt; after that the token is rejected by signature verification
// anyway and the row is swept.
type RevocationEntry struct {
	TokenHash string    // token_blacklist.token_hash
	ExpiresAt time.Time // token_blacklist.expires_at
}
