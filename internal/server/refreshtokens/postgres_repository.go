package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/clipvault/internal/common"
	"github.com/avolkov/clipvault/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *RefreshToken) error {

	query :=
		`INSERT INTO refresh_tokens (token, user_id, issued_at, expires_at, revoked)
         VALUES ($1, $2, $3, $4, false)
		 `

	_, err := r.db.ExecContext(ctx, query, rec.Token, rec.UserID, rec.IssuedAt, rec.ExpiresAt)

	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*RefreshToken, error) {

	query :=
		`SELECT token, user_id, issued_at, expires_at, revoked, COALESCE(replaced_by, '')
		 FROM refresh_tokens
		 WHERE token = $1
		 `

	rec := &RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rec.Token, &rec.UserID, &rec.IssuedAt, &rec.ExpiresAt, &rec.Revoked, &rec.ReplacedBy)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return rec, nil
}

// MarkRevoked is a single-statement conditional update, so two concurrent
// invalidations of the same token race safely: one changes the row, the
// other matches nothing.
func (r *PostgresRepository) MarkRevoked(ctx context.Context, token string) (int64, error) {

	query :=
		`UPDATE refresh_tokens
		 SET revoked = true
		 WHERE token = $1 AND NOT revoked
		 `

	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %v", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %v", err)
	}

	return affected, nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {

	query :=
		`UPDATE refresh_tokens
		 SET revoked = true
		 WHERE user_id = $1 AND NOT revoked
		 `

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %v", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %v", err)
	}

	return affected, nil
}

func (r *PostgresRepository) SetReplacedBy(ctx context.Context, token string, replacedBy string) error {

	query :=
		`UPDATE refresh_tokens
		 SET replaced_by = $2
		 WHERE token = $1 AND revoked
		 `

	_, err := r.db.ExecContext(ctx, query, token, replacedBy)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return nil
}
