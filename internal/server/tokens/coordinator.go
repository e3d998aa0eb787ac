package tokens

import (
	"context"
	"time"

	"github.com/avolkov/clipvault/internal/common"
	"github.com/avolkov/clipvault/internal/logging"
	"github.com/avolkov/clipvault/internal/server/auth"
)

// TokenPair bundles a short-lived access token, a long-lived refresh token,
// and the access token's lifetime in seconds for client-side renewal
// scheduling.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// RefreshStore is the slice of the refresh-token store the coordinator
// drives.
type RefreshStore interface {
	Create(ctx context.Context, userID int64) (string, error)
	Validate(ctx context.Context, token string) (int64, error)
	Invalidate(ctx context.Context, token string) error
	Rotate(ctx context.Context, token string) error
	RecordReplacement(ctx context.Context, token string, replacedBy string) error
}

// Revoker is the write side of the blacklist.
type Revoker interface {
	Revoke(ctx context.Context, token string, userID int64, expiresAt time.Time) error
}

// IdentityProvider resolves the current identity and role of a user during
// renewal, so that role changes take effect on the next rotation instead of
// being copied forward from stale claims.
type IdentityProvider interface {
	IdentityByID(ctx context.Context, userID int64) (auth.Identity, error)
}

// Coordinator orchestrates paired access/refresh issuance, rotation during
// renewal, and logout.
//
// Renew and Logout each write to two stores (blacklist, refresh tokens)
// without a shared transaction. A crash between the two writes leaves the
// refresh token briefly usable while the access token is already dead;
// both operations are idempotent and order-independent, so the window
// self-heals on the next attempt rather than needing compensation logic.
type Coordinator struct {
	refresh    RefreshStore
	registry   Revoker
	identities IdentityProvider
	secretKey  []byte
	issuer     string
	accessTTL  time.Duration
	logger     logging.Logger
}

func NewCoordinator(refresh RefreshStore, registry Revoker, identities IdentityProvider,
	secretKey []byte, issuer string, accessTTL time.Duration, logger logging.Logger) *Coordinator {
	return &Coordinator{
		refresh:    refresh,
		registry:   registry,
		identities: identities,
		secretKey:  secretKey,
		issuer:     issuer,
		accessTTL:  accessTTL,
		logger:     logger.With("module", "tokens"),
	}
}

// IssuePair mints an access token for the identity and a persisted refresh
// token for its user.
func (c *Coordinator) IssuePair(ctx context.Context, identity auth.Identity) (*TokenPair, error) {

	accessToken, err := auth.GenerateAccessToken(identity.UserID, identity.Email, identity.Role,
		c.issuer, c.secretKey, c.accessTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := c.refresh.Create(ctx, identity.UserID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(c.accessTTL.Seconds()),
	}, nil
}

// Renew exchanges a refresh token for a fresh pair exactly once. The
// renewal authority is the refresh token's own claims and record; the
// presented access token only gets revoked pre-emptively so it cannot
// outlive the rotation. Every failure collapses to
// common.ErrInvalidCredential: callers never learn which check refused
// them.
func (c *Coordinator) Renew(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {

	claims, err := auth.ParseRefreshToken(refreshToken, c.secretKey)
	if err != nil {
		return nil, common.ErrInvalidCredential
	}

	userID, err := c.refresh.Validate(ctx, refreshToken)
	if err != nil || userID != claims.UserID {
		return nil, common.ErrInvalidCredential
	}

	if err := c.revokeAccessToken(ctx, accessToken, userID); err != nil {
		return nil, common.ErrInvalidCredential
	}

	// Single-use gate: of two concurrent renewals with the same token,
	// exactly one passes this point.
	if err := c.refresh.Rotate(ctx, refreshToken); err != nil {
		return nil, common.ErrInvalidCredential
	}

	identity, err := c.identities.IdentityByID(ctx, userID)
	if err != nil {
		return nil, common.ErrInvalidCredential
	}

	pair, err := c.IssuePair(ctx, identity)
	if err != nil {
		return nil, common.ErrInvalidCredential
	}

	// Rotation audit trail; the new pair is already valid regardless.
	if err := c.refresh.RecordReplacement(ctx, refreshToken, pair.RefreshToken); err != nil {
		c.logger.Warn(ctx, "failed to record refresh token replacement", "error", err.Error())
	}

	return pair, nil
}

// Logout retires both presented tokens. The two revocations are
// independent and idempotent, so a repeated or concurrent logout with the
// same pair succeeds and converges on the same end state.
func (c *Coordinator) Logout(ctx context.Context, accessToken, refreshToken string) error {

	var failed error

	if claims, err := auth.DecodeAccessToken(accessToken, c.secretKey); err == nil {
		if err := c.registry.Revoke(ctx, accessToken, claims.UserID, claims.ExpiresAt.Time); err != nil {
			failed = err
		}
	}
	// an undecodable access token is unusable anyway; nothing to revoke

	if err := c.refresh.Invalidate(ctx, refreshToken); err != nil {
		failed = err
	}

	if failed != nil {
		c.logger.Error(ctx, "logout left partial state", "error", failed.Error())
		return common.ErrorInternal
	}

	return nil
}

// revokeAccessToken blacklists the presented access token, bounding the
// record by the token's own embedded expiry. When the token cannot be
// decoded at all, the record is bounded by one access-token lifetime from
// now, which can only over-retain.
func (c *Coordinator) revokeAccessToken(ctx context.Context, accessToken string, userID int64) error {
	expiresAt := time.Now().Add(c.accessTTL)
	if claims, err := auth.DecodeAccessToken(accessToken, c.secretKey); err == nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return c.registry.Revoke(ctx, accessToken, userID, expiresAt)
}
