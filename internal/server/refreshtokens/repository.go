// Package refreshtokens persists refresh-token records and enforces their
// one-time-use rotation and revocation lifecycle.
package refreshtokens

import (
	"context"
)

// Repository defines storage operations on refresh-token records. Each
// operation is atomic on its own (single-statement); the coordinator's
// multi-store flows deliberately do not span repositories with one
// transaction.
type Repository interface {
	// Create stores a new record with revoked=false.
	Create(ctx context.Context, rec *RefreshToken) error

	// Find looks up a record by its token string. Absent tokens return
	// common.ErrorNotFound.
	Find(ctx context.Context, token string) (*RefreshToken, error)

	// MarkRevoked flips revoked to true, only when the record exists and is
	// not yet revoked. It returns the number of rows changed so callers can
	// distinguish a first revocation from an idempotent repeat.
	MarkRevoked(ctx context.Context, token string) (int64, error)

	// SetReplacedBy records which token superseded an already-revoked one.
	// Audit metadata only; it never affects whether a token is usable.
	SetReplacedBy(ctx context.Context, token string, replacedBy string) error

	// RevokeAllForUser flips revoked on every live record of the user and
	// returns how many rows changed.
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
}
