package videos

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, video *Video) (*Video, error)
	FindByID(ctx context.Context, id int64) (*Video, error)
	List(ctx context.Context) ([]*Video, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Video, error)

	UpdateMeta(ctx context.Context, id int64, title, description string) error
	UpdateStatus(ctx context.Context, id int64, status string) error

	// Delete removes the row and returns how many rows changed.
	Delete(ctx context.Context, id int64) (int64, error)
}
