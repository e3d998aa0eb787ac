package blacklist

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenIdentifier derives the stable blacklist key for an access token: the
// hex-encoded SHA-256 of the canonical token string. A fixed-width digest
// gives a uniform, collision-resistant key regardless of how the token is
// serialized, unlike keying off one of its internal segments.
func TokenIdentifier(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
