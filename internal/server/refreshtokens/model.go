package refreshtokens

import (
	"time"

	"github.com/avolkov/clipvault/internal/common"
)

// RefreshToken is a persisted refresh-token record. The token string itself
// is a signed compact token; the record is the source of truth for whether
// it may still be exchanged.
type RefreshToken struct {
	Token      string
	UserID     int64
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy string
}

// Revoke performs the one-way ACTIVE to REVOKED transition. An
// already-revoked record returns common.ErrTokenRevoked; callers performing
// idempotent invalidation treat that as success. There is no path back to
// ACTIVE.
func (t RefreshToken) Revoke() (RefreshToken, error) {
	if t.Revoked {
		return t, common.ErrTokenRevoked
	}
	t.Revoked = true
	return t, nil
}

// Expired reports whether the record is past its expiry at the given
// instant. Expiry is derived at read time; nothing is written.
func (t RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
