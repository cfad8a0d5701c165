package entity

import "time"

// UserProfile is the UI-facing shape of a document in the users collection.
// Accounts start with IsActive=false and stay locked out until another
// member flips the flag.
type UserProfile struct {
	UID       string     `json:"uid"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	PhotoURL  *string    `json:"photoURL"`
	Bio       string     `json:"bio"`
	IsActive  bool       `json:"isActive"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
