package auth

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

// Identity returns the request identity for the user.
func (u *User) Identity() shared.Identity {
	if u == nil {
		return shared.Anonymous()
	}
	return shared.Identity{UserID: u.ID, Email: u.Email, Name: u.Name}
}

// NewUser carries the columns written when a user registers.
type NewUser struct {
	Email        string
	PasswordHash string
	Name         string
}

// RegisterInput is the plaintext registration request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// NormalizeEmail trims and case-folds an email so lookups ignore case.
// A Caser is stateful, so one is built per call.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
