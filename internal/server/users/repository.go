package users

import (
	"context"
)

// Repository defines storage operations on user accounts. Finders skip
// deleted accounts.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)

	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdateProfile(ctx context.Context, id int64, name, phone string) error
	UpdateRole(ctx context.Context, id int64, role string) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error

	// MarkDeleted soft-deletes the account and returns how many rows
	// changed; 0 when the account is unknown or already deleted.
	MarkDeleted(ctx context.Context, id int64) (int64, error)
}
