package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"crcsite/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user and its role assignments in one transaction.
func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertUser = `
		INSERT INTO users (id, email, password_hash, auth_fail_count, created_at)
		VALUES ($1, $2, $3, 0, NOW())
	`
	if _, err := tx.Exec(ctx, insertUser, user.ID, user.Email, user.PasswordHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}

	const assignRole = `
		INSERT INTO role_user_map (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
	`
	for _, role := range user.Roles {
		if _, err := tx.Exec(ctx, assignRole, user.ID, role); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

const userColumns = `
	u.id, u.email, u.password_hash, u.auth_fail_count, u.created_at,
	COALESCE(ARRAY_AGG(r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
`

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN role_user_map m ON m.user_id = u.id
		LEFT JOIN roles r ON r.id = m.role_id
		WHERE u.email = $1
		GROUP BY u.id
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN role_user_map m ON m.user_id = u.id
		LEFT JOIN roles r ON r.id = m.role_id
		WHERE u.id = $1
		GROUP BY u.id
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) scanOne(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.AuthFailCount,
		&user.CreatedAt,
		&user.Roles,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// List returns every registered user with their roles, ordered by
// registration time. Backs the admin user table.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN role_user_map m ON m.user_id = u.id
		LEFT JOIN roles r ON r.id = m.role_id
		GROUP BY u.id
		ORDER BY u.created_at
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// RecordAuthFailure bumps the consecutive-failure counter. The relative
// increment is a single atomic statement, so concurrent failed attempts
// cannot under-count.
func (r *UserRepository) RecordAuthFailure(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET auth_fail_count = auth_fail_count + 1 WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordAuthSuccess resets the consecutive-failure counter.
func (r *UserRepository) RecordAuthSuccess(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET auth_fail_count = 0 WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword stores a new hash and clears the failure counter in the
// same statement, so a recovered account is immediately unlocked.
func (r *UserRepository) UpdatePassword(ctx context.Context, email string, hash []byte) error {
	const query = `
		UPDATE users SET password_hash = $2, auth_fail_count = 0 WHERE email = $1
	`
	cmd, err := r.pool.Exec(ctx, query, email, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes the user; role assignments go with it via ON DELETE
// CASCADE.
func (r *UserRepository) Delete(ctx context.Context, email string) error {
	const query = `DELETE FROM users WHERE email = $1`
	cmd, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
