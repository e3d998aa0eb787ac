package videos

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

const videoColumns = `id, owner_id, title, description, storage_key, content_type, size_bytes, status, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, video *Video) (*Video, error) {

	query :=
		`INSERT INTO videos (owner_id, title, description, storage_key, content_type, size_bytes, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		video.OwnerID, video.Title, video.Description, video.StorageKey,
		video.ContentType, video.SizeBytes, video.Status).
		Scan(&video.ID, &video.CreatedAt, &video.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return video, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*Video, error) {

	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video := &Video{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description,
			&video.StorageKey, &video.ContentType, &video.SizeBytes,
			&video.Status, &video.CreatedAt, &video.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return video, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos ORDER BY id`
	return r.queryMany(ctx, query)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE owner_id = $1 ORDER BY id`
	return r.queryMany(ctx, query, ownerID)
}

func (r *PostgresRepository) UpdateMeta(ctx context.Context, id int64, title, description string) error {

	query :=
		`UPDATE videos
		 SET title = $2, description = $3, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, title, description)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return r.requireRow(res)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status string) error {

	query :=
		`UPDATE videos
		 SET status = $2, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return r.requireRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (int64, error) {

	query := `DELETE FROM videos WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %v", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %v", err)
	}

	return affected, nil
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]*Video, error) {

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var result []*Video
	for rows.Next() {
		video := &Video{}
		err := rows.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description,
			&video.StorageKey, &video.ContentType, &video.SizeBytes,
			&video.Status, &video.CreatedAt, &video.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		result = append(result, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %v", err)
	}

	return result, nil
}

func (r *PostgresRepository) requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %v", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}
