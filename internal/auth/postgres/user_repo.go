// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

// Package postgres provides PostgreSQL implementations of auth repositories.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Aytsuu/Skwela/internal/auth"
)

// Querier is the subset of pgxpool.Pool used by the repositories.
// pgxmock.PgxPoolIface satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, email, username, password_hash, display_name, display_image,
	       role, email_verified, refresh_token, refresh_token_expires_at,
	       created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// UsernameIndex is the unique index on LOWER(username).
const UsernameIndex = "users_username_lower_idx"

// Create stores a new user. A duplicate email returns an error wrapping
// auth.ErrEmailTaken, a duplicate username one wrapping auth.ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, email, username, password_hash, display_name, display_image,
			role, email_verified, refresh_token, refresh_token_expires_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		user.ID.String(),
		auth.NormalizeEmail(user.Email),
		user.Username,
		user.PasswordHash,
		user.DisplayName,
		user.DisplayImage,
		string(user.Role),
		user.EmailVerified,
		user.RefreshToken,
		user.RefreshTokenExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == UsernameIndex {
				return oops.Code("USER_USERNAME_TAKEN").
					With("constraint", pgErr.ConstraintName).
					Wrap(auth.ErrUsernameTaken)
			}
			return oops.Code("USER_EMAIL_TAKEN").
				With("constraint", pgErr.ConstraintName).
				Wrap(auth.ErrEmailTaken)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`,
		auth.NormalizeEmail(email))

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// GetByRefreshToken retrieves the user holding exactly this refresh token.
func (r *UserRepository) GetByRefreshToken(ctx context.Context, token string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE refresh_token = $1`, token)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_REFRESH_TOKEN_FAILED").
			With("operation", "get user by refresh token").
			Wrap(err)
	}
	return user, nil
}

// Update persists the mutable fields of a user. Writes are last-write-wins.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			username = $2,
			password_hash = $3,
			display_name = $4,
			display_image = $5,
			role = $6,
			email_verified = $7,
			refresh_token = $8,
			refresh_token_expires_at = $9,
			updated_at = $10
		WHERE id = $1
	`,
		user.ID.String(),
		user.Username,
		user.PasswordHash,
		user.DisplayName,
		user.DisplayImage,
		string(user.Role),
		user.EmailVerified,
		user.RefreshToken,
		user.RefreshTokenExpiresAt,
		user.UpdatedAt,
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", user.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr     string
		role      string
		user      auth.User
		expiresAt *time.Time
	)
	err := row.Scan(
		&idStr,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.DisplayName,
		&user.DisplayImage,
		&role,
		&user.EmailVerified,
		&user.RefreshToken,
		&expiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").With("id", idStr).Wrap(err)
	}
	user.ID = id
	user.Role = auth.Role(role)
	if expiresAt != nil {
		t := expiresAt.UTC()
		user.RefreshTokenExpiresAt = &t
	}
	return &user, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
