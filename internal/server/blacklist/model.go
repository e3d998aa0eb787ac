package blacklist

import "time"

// RevokedAccessToken is a persisted revocation record. Only the derived
// identifier is stored, never the raw token. A record is useful until the
// original token's own expiry; after that the token is unusable by time
// alone and the record is prunable.
type RevokedAccessToken struct {
	TokenIdentifier string
	UserID          int64
	RevokedAt       time.Time
	ExpiresAt       time.Time
}
