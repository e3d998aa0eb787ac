package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkov/clipvault/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add tolerates duplicate identifiers via ON CONFLICT DO NOTHING: two
// concurrent revocations of the same token both succeed and leave exactly
// one row.
func (r *PostgresRepository) Add(ctx context.Context, rec *RevokedAccessToken) error {

	query :=
		`INSERT INTO revoked_access_tokens (token_identifier, user_id, revoked_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (token_identifier) DO NOTHING
		 `

	_, err := r.db.ExecContext(ctx, query, rec.TokenIdentifier, rec.UserID, rec.RevokedAt, rec.ExpiresAt)

	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, identifier string) (bool, error) {

	query :=
		`SELECT EXISTS (SELECT 1 FROM revoked_access_tokens WHERE token_identifier = $1)
		 `

	var exists bool
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %v", err)
	}

	return exists, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {

	query :=
		`DELETE FROM revoked_access_tokens WHERE expires_at < $1
		 `

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %v", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %v", err)
	}

	return affected, nil
}
