package model

import "time"

// User mirrors the `users` table. PasswordHash and VerificationCode never
// leave the repository layer; handlers serialize the public shape below.
type User struct {
	ID               string
	Email            string
	PasswordHash     string
	EmailVerified    bool
	VerificationCode *string // nil once the email has been verified
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PublicUser is the user shape returned by the API (login responses and the
// like). It deliberately omits credentials and the verification code.
type PublicUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Public converts a stored user to its API representation.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, EmailVerified: u.EmailVerified}
}
