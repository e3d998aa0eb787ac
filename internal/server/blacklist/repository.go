// Package blacklist records revoked access tokens until their natural
// expiry. Lookup runs on every authenticated request, so backends keep it
// to a single indexed equality check.
package blacklist

import (
	"context"
	"time"
)

// Repository defines storage operations on revocation records.
type Repository interface {
	// Add persists a record. Adding an identifier that is already present
	// is an idempotent no-op: the uniqueness invariant holds and no error
	// surfaces.
	Add(ctx context.Context, rec *RevokedAccessToken) error

	// Exists reports whether an identifier is recorded.
	Exists(ctx context.Context, identifier string) (bool, error)

	// DeleteExpired removes all records whose expiry is before now and
	// returns how many were removed. Backends that expire entries on their
	// own may implement this as a no-op.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
