package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkov/clipvault/internal/common"
	"github.com/avolkov/clipvault/internal/dbx"
	"github.com/avolkov/clipvault/internal/server/auth"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {

	query :=
		`INSERT INTO users (email, password_hash, name, phone, role)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash,
		user.Name, user.Phone, string(user.Role)).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*User, error) {

	query :=
		`SELECT id, email, password_hash, name, phone, role, created_at, updated_at
		 FROM users
		 WHERE id = $1 AND NOT deleted
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {

	query :=
		`SELECT id, email, password_hash, name, phone, role, created_at, updated_at
		 FROM users
		 WHERE email = $1 AND NOT deleted
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*User, error) {

	query :=
		`SELECT id, email, password_hash, name, phone, role, created_at, updated_at
		 FROM users
		 WHERE NOT deleted
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var result []*User
	for rows.Next() {
		user := &User{}
		var role string
		err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash,
			&user.Name, &user.Phone, &role, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		user.Role = auth.Role(role)
		result = append(result, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %v", err)
	}

	return result, nil
}

func (r *PostgresRepository) UpdateEmail(ctx context.Context, id int64, email string) error {

	query :=
		`UPDATE users
		 SET email = $2, updated_at = now()
		 WHERE id = $1 AND NOT deleted
		 `

	res, err := r.db.ExecContext(ctx, query, id, email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return r.requireRow(res)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, name, phone string) error {

	query :=
		`UPDATE users
		 SET name = $2, phone = $3, updated_at = now()
		 WHERE id = $1 AND NOT deleted
		 `

	res, err := r.db.ExecContext(ctx, query, id, name, phone)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return r.requireRow(res)
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id int64, role string) error {

	query :=
		`UPDATE users
		 SET role = $2, updated_at = now()
		 WHERE id = $1 AND NOT deleted
		 `

	res, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return r.requireRow(res)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {

	query :=
		`UPDATE users
		 SET password_hash = $2, updated_at = now()
		 WHERE id = $1 AND NOT deleted
		 `

	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return r.requireRow(res)
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, id int64) (int64, error) {

	query :=
		`UPDATE users
		 SET deleted = true, updated_at = now()
		 WHERE id = $1 AND NOT deleted
		 `

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

func (r *PostgresRepository) scanOne(row *sql.Row) (*User, error) {
	user := &User{}
	var role string
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash,
		&user.Name, &user.Phone, &role, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	user.Role = auth.Role(role)
	return user, nil
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
