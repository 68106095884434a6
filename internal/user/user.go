// Package user defines the user model used throughout the application,
// particularly for registration, login and profile lookups.
package user

// User represents a registered user. Users are created on registration,
// are immutable thereafter and are never deleted.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string `json:"id"`

	// Username is unique across all users.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// The plaintext password is never stored.
	PasswordHash string `json:"password_hash"`
}
