package models

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor the rest of our fleet uses.
const bcryptCost = 10

// User is the stored representation of a registered account. Password holds
// only a bcrypt hash once the record has been persisted; it is excluded from
// JSON so a marshalled record can never leak it.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// SetPassword replaces the plaintext password with a salted bcrypt hash.
// bcrypt salts internally, so hashing the same plaintext twice yields
// different stored values.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// ComparePassword reports whether attempt matches the stored hash.
func (u *User) ComparePassword(attempt string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(attempt)) == nil
}

// Sanitized returns a copy safe to cross a trust boundary: identical fields
// with the password hash stripped.
func (u *User) Sanitized() *User {
	clean := *u
	clean.Password = ""
	return &clean
}

// NormalizeEmail lowercases and trims an email address. All comparisons and
// storage operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
