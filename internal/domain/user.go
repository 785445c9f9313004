package domain

import (
	"strings"
	"time"
)

// User represents an account that can authenticate with a bearer token.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Token        string
	Avatar       string
	IsStaff      bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasAvatar reports whether an avatar file is recorded for the user.
func (u *User) HasAvatar() bool {
	return u != nil && u.Avatar != ""
}

// NormalizeEmail lowercases the domain part of an address and trims spaces.
// The local part is kept as entered.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
