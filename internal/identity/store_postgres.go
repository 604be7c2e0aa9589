// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvidlabs/corvid/internal/platform/dberr"
	"github.com/corvidlabs/corvid/pkg/pagination"
)

// # User Store (PostgreSQL)

// PostgresUserStore implements the [UserStore] interface using pgx.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL implementation of the UserStore.
func NewUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

const userColumns = "id, email, passwordhash, role, tokenversion, disabled, createdat, updatedat"

/*
Create persists a new user record into the accounts.user table.

Emails are normalized to lowercase before insertion so that the unique
index enforces case-insensitive uniqueness.

Parameters:
  - ctx: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or storage errors
*/
func (store *PostgresUserStore) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO accounts.user (
			id, email, passwordhash, role, tokenversion, disabled, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(user.Email)

	_, err := store.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.TokenVersion,
		user.Disabled,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
FindByID retrieves a user record by its unique ID.

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (store *PostgresUserStore) FindByID(ctx context.Context, id string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM accounts.user
		WHERE id = $1`

	return store.scanOne(ctx, query, id)
}

/*
FindByEmail retrieves a user record by its unique email address.

The comparison is performed on the lowercased value, matching the storage
normalization applied in [Create].

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (store *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM accounts.user
		WHERE email = $1`

	return store.scanOne(ctx, query, strings.ToLower(email))
}

/*
List returns a page of user accounts ordered by creation time, plus the
total account count for pagination metadata.
*/
func (store *PostgresUserStore) List(ctx context.Context, params pagination.Params) ([]User, int, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM accounts.user
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := store.pool.Query(ctx, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_user_store_list_failed: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.TokenVersion,
			&user.Disabled,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_user_store_list_scan_failed: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_store_list_rows_failed: %w", err)
	}

	var total int
	if err := store.pool.QueryRow(ctx, "SELECT COUNT(*) FROM accounts.user").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_store_count_failed: %w", err)
	}

	return users, total, nil
}

/*
UpdateRole changes the role of an account.
*/
func (store *PostgresUserStore) UpdateRole(ctx context.Context, id string, role string) error {
	const query = `
		UPDATE accounts.user
		SET role = $2, updatedat = $3
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, id, role, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_store_update_role_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.NoRows("User")
	}
	return nil
}

/*
UpdatePassword replaces the password hash and bumps the token_version in a
single atomic statement.

Description: A password change is always a global logout — any token issued
against the old credential is stale the instant this statement commits.
*/
func (store *PostgresUserStore) UpdatePassword(ctx context.Context, id string, newHash string) error {
	const query = `
		UPDATE accounts.user
		SET passwordhash = $2, tokenversion = tokenversion + 1, updatedat = $3
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, id, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_store_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.NoRows("User")
	}
	return nil
}

/*
BumpTokenVersion increments the revocation counter for an account.

Description: O(1) revoke-all. No token blocklist is needed; verification
compares each token's embedded version against this counter.
*/
func (store *PostgresUserStore) BumpTokenVersion(ctx context.Context, id string) error {
	const query = `
		UPDATE accounts.user
		SET tokenversion = tokenversion + 1, updatedat = $2
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_store_bump_version_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.NoRows("User")
	}
	return nil
}

/*
SetDisabled flips the disabled flag for an account.
*/
func (store *PostgresUserStore) SetDisabled(ctx context.Context, id string, disabled bool) error {
	const query = `
		UPDATE accounts.user
		SET disabled = $2, updatedat = $3
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, id, disabled, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_store_set_disabled_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.NoRows("User")
	}
	return nil
}

/*
Delete permanently removes an account.
*/
func (store *PostgresUserStore) Delete(ctx context.Context, id string) error {
	const query = "DELETE FROM accounts.user WHERE id = $1"

	tag, err := store.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres_user_store_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.NoRows("User")
	}
	return nil
}

// scanOne runs a single-row query and hydrates a [User].
func (store *PostgresUserStore) scanOne(ctx context.Context, query string, args ...any) (*User, error) {
	user := &User{}
	err := store.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.TokenVersion,
		&user.Disabled,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}
