package models

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represent the authenticated person. The bcrypt hash never leaves
// the process : json tag hides it from every response shape.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// NormalizeEmail is applied before every store or lookup so that email
// uniqueness and login are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DeriveUsername turns an OAuth display name into a username that meets the
// same 3-30 constraint as registration. A missing or too-short name falls
// back to the email local part, then to a prefixed form of it.
func DeriveUsername(display, email string) string {
	u := strings.TrimSpace(display)
	if utf8.RuneCountInString(u) < 3 {
		u, _, _ = strings.Cut(NormalizeEmail(email), "@")
	}
	if utf8.RuneCountInString(u) < 3 {
		u = "user-" + u
	}
	if utf8.RuneCountInString(u) > 30 {
		u = string([]rune(u)[:30])
	}
	return u
}

// ValidateRegistration checks the registration input and returns field
// level messages for everything wrong at once.
func ValidateRegistration(username, email, password string) error {
	fields := map[string]string{}

	// Bounds count characters, not bytes - multibyte names are legal.
	if n := utf8.RuneCountInString(strings.TrimSpace(username)); n < 3 || n > 30 {
		fields["username"] = "username must be between 3 and 30 characters"
	}

	if _, err := mail.ParseAddress(NormalizeEmail(email)); err != nil {
		fields["email"] = "email is not a valid address"
	}

	if len(password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}

	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}
