// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package identity

import (
	"context"

	"github.com/corvidlabs/corvid/pkg/pagination"
)

// # User Data Access

// UserStore defines the data access contract for user accounts.
//
// Implementations map storage-level failures (no rows, unique violations)
// into [apperr.AppError] values so callers never see driver errors.
type UserStore interface {

	// Create persists a brand-new user account.
	Create(ctx context.Context, user *User) error

	// FindByID returns the account with the given ID.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email.
	// The lookup is case-insensitive; emails are stored lowercased.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// List returns a page of accounts plus the total count.
	List(ctx context.Context, params pagination.Params) ([]User, int, error)

	// UpdateRole changes the role of an account.
	UpdateRole(ctx context.Context, id string, role string) error

	// UpdatePassword replaces the password hash AND bumps token_version in
	// one atomic statement, so a password change is always a global logout.
	UpdatePassword(ctx context.Context, id string, newHash string) error

	// BumpTokenVersion increments the revocation counter, instantly
	// invalidating every previously issued token for the account.
	BumpTokenVersion(ctx context.Context, id string) error

	// SetDisabled flips the disabled flag.
	SetDisabled(ctx context.Context, id string, disabled bool) error

	// Delete permanently removes an account.
	Delete(ctx context.Context, id string) error
}
