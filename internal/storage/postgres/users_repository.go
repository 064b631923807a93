package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/expotrade/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const userColumns = `id, username, email, name, password_hash, role, is_superuser, is_active, is_password_set, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (storage.User, error) {
	var user storage.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.IsSuperuser,
		&user.IsActive,
		&user.IsPasswordSet,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user storage.User) (storage.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO users (username, email, name, password_hash, role, is_superuser, is_active, is_password_set)
VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)
RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.IsSuperuser,
		user.IsActive,
		user.IsPasswordSet,
	)
	created, err := scanUser(row)
	if err != nil {
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (storage.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (storage.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (storage.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email)
	return scanUser(row)
}

func (r *UserRepository) UsernameTakenByOther(ctx context.Context, username, excludeUserID string) (bool, error) {
	var taken bool
	err := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`,
		username, excludeUserID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return taken, nil
}

func (r *UserRepository) ListTeam(ctx context.Context) ([]storage.User, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE role IN ('manager', 'sales')
 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}
	defer rows.Close()

	var users []storage.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// DeleteTeamMember removes a user only when their role is manager or sales.
// Admin accounts are invisible to this delete and yield ErrNotFound.
func (r *UserRepository) DeleteTeamMember(ctx context.Context, id string) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx,
		`DELETE FROM users WHERE id = $1 AND role IN ('manager', 'sales')`, id)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := pick(r.pool, r.tx).Exec(ctx,
		`UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (r *UserRepository) FinalizePasswordSetup(ctx context.Context, params storage.FinalizePasswordSetupParams) (storage.User, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
UPDATE users
   SET username = $2,
       password_hash = $3,
       is_active = true,
       is_password_set = true,
       updated_at = now()
 WHERE id = $1
RETURNING `+userColumns,
		params.UserID, params.Username, params.PasswordHash)
	user, err := scanUser(row)
	if err != nil {
		return storage.User{}, err
	}

	_, err = pick(r.pool, r.tx).Exec(ctx,
		`DELETE FROM password_setup_tokens WHERE user_id = $1`, params.UserID)
	if err != nil {
		return storage.User{}, fmt.Errorf("delete setup tokens: %w", err)
	}
	return user, nil
}

type TokenRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *TokenRepository) Create(ctx context.Context, token storage.PasswordSetupToken) (storage.PasswordSetupToken, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO password_setup_tokens (user_id, token)
VALUES ($1, $2)
RETURNING id, user_id, token, created_at`,
		token.UserID, token.Token)

	var created storage.PasswordSetupToken
	if err := row.Scan(&created.ID, &created.UserID, &created.Token, &created.CreatedAt); err != nil {
		return storage.PasswordSetupToken{}, fmt.Errorf("create setup token: %w", err)
	}
	return created, nil
}

func (r *TokenRepository) GetByToken(ctx context.Context, token string) (storage.PasswordSetupToken, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
SELECT id, user_id, token, created_at
  FROM password_setup_tokens
 WHERE token = $1`, token)

	var found storage.PasswordSetupToken
	if err := row.Scan(&found.ID, &found.UserID, &found.Token, &found.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.PasswordSetupToken{}, storage.ErrNotFound
		}
		return storage.PasswordSetupToken{}, fmt.Errorf("get setup token: %w", err)
	}
	return found, nil
}

func (r *TokenRepository) DeleteForUser(ctx context.Context, userID string) error {
	_, err := pick(r.pool, r.tx).Exec(ctx,
		`DELETE FROM password_setup_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete setup tokens: %w", err)
	}
	return nil
}
