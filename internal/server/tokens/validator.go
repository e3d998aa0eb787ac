// Package tokens composes the token primitives into the request-facing
// operations: single pass/fail validation of access tokens, and the
// coordinator that issues, renews, and retires token pairs.
package tokens

import (
	"context"

	"github.com/avolkov/clipvault/internal/server/auth"
)

// RevocationChecker is the read side of the blacklist consumed by the
// validator.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Validator decides whether a presented access token is acceptable.
type Validator struct {
	secretKey []byte
	registry  RevocationChecker
}

func NewValidator(secretKey []byte, registry RevocationChecker) *Validator {
	return &Validator{
		secretKey: secretKey,
		registry:  registry,
	}
}

// IsValid verifies signature and expiry first (the cheap, in-memory
// rejection path), then consults the revocation registry. Every failure
// mode collapses to false; callers needing the distinction parse the token
// themselves.
func (v *Validator) IsValid(ctx context.Context, token string) bool {
	if _, err := auth.ParseAccessToken(token, v.secretKey); err != nil {
		return false
	}

	revoked, err := v.registry.IsRevoked(ctx, token)
	if err != nil {
		return false
	}

	return !revoked
}
