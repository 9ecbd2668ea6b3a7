package domain

import (
	"strings"
	"time"
)

// User is the stored profile of a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity returns the authenticated view of the user.
func (u *User) Identity() Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{UserID: u.ID, Email: u.Email, DisplayName: u.Name}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is the authenticated principal a session is bound to.
type Identity struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}
