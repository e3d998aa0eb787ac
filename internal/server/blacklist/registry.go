package blacklist

import (
	"context"
	"time"

	"github.com/avolkov/clipvault/internal/logging"
)

// Registry is the revocation registry for access tokens. It owns revoked
// access-token records exclusively; refresh-token state lives in the
// refreshtokens package.
type Registry struct {
	repo   Repository
	logger logging.Logger
}

func NewRegistry(repo Repository, logger logging.Logger) *Registry {
	return &Registry{
		repo:   repo,
		logger: logger.With("module", "blacklist"),
	}
}

// Revoke records the access token as revoked until expiresAt. Revoking the
// same token twice is idempotent.
func (r *Registry) Revoke(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	rec := &RevokedAccessToken{
		TokenIdentifier: TokenIdentifier(token),
		UserID:          userID,
		RevokedAt:       time.Now(),
		ExpiresAt:       expiresAt,
	}
	return r.repo.Add(ctx, rec)
}

// IsRevoked reports whether the access token has a revocation record. Runs
// on every authenticated request.
func (r *Registry) IsRevoked(ctx context.Context, token string) (bool, error) {
	return r.repo.Exists(ctx, TokenIdentifier(token))
}

// Sweep prunes records whose underlying token has expired by time alone.
// Failures are logged and left for the next scheduled run; they never reach
// request-path callers.
func (r *Registry) Sweep(ctx context.Context, now time.Time) {
	removed, err := r.repo.DeleteExpired(ctx, now)
	if err != nil {
		r.logger.Error(ctx, "blacklist sweep failed", "error", err.Error())
		return
	}
	if removed > 0 {
		r.logger.Info(ctx, "blacklist sweep completed", "removed", removed)
		return
	}
	r.logger.Debug(ctx, "blacklist sweep found nothing to prune")
}
