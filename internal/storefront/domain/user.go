package domain

import "time"

type User struct {
	ID           uint
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName prefers the first name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
