package users

import (
	"time"

	"github.com/avolkov/clipvault/internal/server/auth"
)

// User is an account row. Deleted accounts stay in the table with the
// deleted flag set so that historical tokens and videos keep a valid
// owner reference.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         auth.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Deleted      bool
}

// Identity projects the account onto the claims embedded in tokens.
func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}
