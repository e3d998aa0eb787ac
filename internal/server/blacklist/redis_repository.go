package blacklist

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "blacklist:"

// RedisRepository stores revocation records as Redis keys with a TTL equal
// to the remaining lifetime of the revoked token, so Redis prunes them on
// its own and the scheduled sweep has nothing to do.
type RedisRepository struct {
	client redis.UniversalClient
}

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) key(identifier string) string {
	return redisKeyPrefix + identifier
}

func (r *RedisRepository) Add(ctx context.Context, rec *RevokedAccessToken) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		// token already unusable by time alone; nothing worth recording
		return nil
	}

	// SET is naturally idempotent for duplicate identifiers
	err := r.client.Set(ctx, r.key(rec.TokenIdentifier), strconv.FormatInt(rec.UserID, 10), ttl).Err()
	if err != nil {
		return fmt.Errorf("error performing redis request: %v", err)
	}

	return nil
}

func (r *RedisRepository) Exists(ctx context.Context, identifier string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(identifier)).Result()
	if err != nil {
		return false, fmt.Errorf("error performing redis request: %v", err)
	}
	return n > 0, nil
}

// DeleteExpired is a no-op: key TTLs already bound every record's lifetime.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
