package entity

import (
	"time"
)

// AuthUser is the credential record held by the auth service.
// Passwords are stored as bcrypt hashes in PasswordHash.
// The profile shown in the app lives in the users document collection,
// keyed by the same ID.
type AuthUser struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
