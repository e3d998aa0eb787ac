package refreshtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkov/clipvault/internal/common"
	"github.com/avolkov/clipvault/internal/server/auth"
)

// Store mints refresh tokens and owns their persisted lifecycle. Only the
// store mutates refresh-token rows; revocation of access tokens lives in
// the blacklist package.
type Store struct {
	repo      Repository
	secretKey []byte
	issuer    string
	validity  time.Duration
}

func NewStore(repo Repository, secretKey []byte, issuer string, validity time.Duration) *Store {
	return &Store{
		repo:      repo,
		secretKey: secretKey,
		issuer:    issuer,
		validity:  validity,
	}
}

// Create mints a signed refresh token for userID and persists its record
// with revoked=false.
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {

	token, err := auth.GenerateRefreshToken(userID, s.issuer, s.secretKey, s.validity)
	if err != nil {
		return "", fmt.Errorf("error generating refresh token: %v", err)
	}

	now := time.Now()
	rec := &RefreshToken{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.validity),
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return "", err
	}

	return token, nil
}

// Validate checks the persisted record, not the token's signature: the
// caller verifies the signature before handing the token here. A token is
// usable iff its record exists, revoked is false, and expiry is strictly in
// the future. Returns the owning user id.
func (s *Store) Validate(ctx context.Context, token string) (int64, error) {

	rec, err := s.repo.Find(ctx, token)
	if err != nil {
		return 0, err
	}

	if rec.Revoked {
		return 0, common.ErrTokenRevoked
	}

	if rec.Expired(time.Now()) {
		return 0, common.ErrTokenExpired
	}

	return rec.UserID, nil
}

// Invalidate flips the record to revoked. Idempotent: invalidating an
// already-revoked or unknown token is a no-op, not an error. Used by
// logout, where two racing calls must both succeed.
func (s *Store) Invalidate(ctx context.Context, token string) error {
	_, err := s.repo.MarkRevoked(ctx, token)
	return err
}

// Rotate is the strict form of Invalidate used during renewal: exactly one
// caller may win the ACTIVE to REVOKED transition. A caller that finds the
// record already revoked (or absent) gets common.ErrTokenRevoked, which is
// how the loser of a concurrent renewal race is refused.
func (s *Store) Rotate(ctx context.Context, token string) error {
	affected, err := s.repo.MarkRevoked(ctx, token)
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrTokenRevoked
	}
	return nil
}

// InvalidateAllForUser revokes every live refresh token of the user, ending
// all their sessions at once. Returns how many records were revoked.
func (s *Store) InvalidateAllForUser(ctx context.Context, userID int64) (int64, error) {
	return s.repo.RevokeAllForUser(ctx, userID)
}

// RecordReplacement annotates a rotated-out record with the token that
// superseded it. Audit metadata only; failures do not affect the rotation.
func (s *Store) RecordReplacement(ctx context.Context, token string, replacedBy string) error {
	return s.repo.SetReplacedBy(ctx, token, replacedBy)
}
