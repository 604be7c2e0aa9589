// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corvidlabs/corvid/internal/platform/apperr"
	"github.com/corvidlabs/corvid/internal/platform/sec"
	"github.com/corvidlabs/corvid/pkg/pagination"
	"github.com/corvidlabs/corvid/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer defines the contract for minting signed session tokens.
type TokenIssuer interface {
	// Issue creates a signed JWT for the given identity.
	Issue(userID string, role sec.Role, tokenVersion int) (string, *sec.AuthClaims, error)

	// TTL reports the configured token lifetime (for expires_in responses).
	TTL() time.Duration
}

// Internal session-rejection causes. Collapsed into one generic denial at
// the HTTP boundary; kept distinct here for audit logging.
var (
	ErrSessionUnknownSubject = errors.New("identity: token subject no longer exists")
	ErrSessionStaleVersion   = errors.New("identity: token version superseded by revocation")
	ErrSessionDisabled       = errors.New("identity: account is disabled")
)

// dummyHash is a well-formed Argon2id digest of random garbage. Login
// verifies against it when the email is unknown, so the request costs the
// same whether or not the account exists.
const dummyHash = "$argon2id$v=19$m=65536,t=1,p=2$b3RhY3VzdGljc2FsdA$VGhpc0lzTm90QVJlYWxIYXNoVmFsdWUwMDA"

// Service implements identity and session use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, login,
// or revocation logic must be reviewed by the security team.
type Service struct {
	users  UserStore
	hasher *sec.Hasher
	tokens TokenIssuer
	log    *slog.Logger
}

// NewService constructs a new identity [Service] with its dependencies.
func NewService(users UserStore, hasher *sec.Hasher, tokens TokenIssuer, log *slog.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
	}
}

// # Authentication Flow

// LoginResult carries the minted token back to the transport layer.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	User        *User
}

/*
Login authenticates an email/password pair and issues a session token.

Description: The externally observable outcome is identical for an unknown
email, a wrong password, and a disabled account — one generic denial. The
distinct cause is written to the audit log only.

Parameters:
  - ctx: context.Context
  - email: string (matched case-insensitively)
  - password: string

Returns:
  - *LoginResult: Token, type, and expiry on success
  - error: apperr.AuthDenied or storage errors
*/
func (service *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := service.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		// Burn the same hashing cost as a real verification so response
		// timing does not reveal whether the account exists.
		service.hasher.Verify(password, dummyHash)
		service.audit(ctx, "login_denied", email, err)
		return nil, apperr.AuthDenied(err)
	}

	if !service.hasher.Verify(password, user.PasswordHash) {
		service.audit(ctx, "login_denied", email, errors.New("identity: password mismatch"))
		return nil, apperr.AuthDenied(nil)
	}

	if user.Disabled {
		service.audit(ctx, "login_denied", email, ErrSessionDisabled)
		return nil, apperr.AuthDenied(ErrSessionDisabled)
	}

	token, _, err := service.tokens.Issue(user.ID, user.Role, user.TokenVersion)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	service.log.InfoContext(ctx, "login_succeeded", slog.String("user_id", user.ID))

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(service.tokens.TTL().Seconds()),
		User:        user,
	}, nil
}

/*
CheckSession validates verified claims against durable identity state.

Description: This is the freshness half of token verification — the
signature and expiry were already checked cryptographically. Here the
subject must still exist, must not be disabled, and the token's embedded
version must equal the stored token_version.

A verification racing a concurrent RevokeAll may read the pre-increment
version and accept one more request; that bounded staleness window is
accepted by design.

Returns:
  - error: One of the ErrSession* causes, or storage errors
*/
func (service *Service) CheckSession(ctx context.Context, claims *sec.AuthClaims) error {
	user, err := service.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionUnknownSubject, err)
	}
	if user.Disabled {
		return ErrSessionDisabled
	}
	if user.TokenVersion != claims.TokenVersion {
		return ErrSessionStaleVersion
	}
	return nil
}

/*
ChangePassword verifies the current credential, re-hashes the new one, and
revokes every outstanding token for the account.

Description: The hash swap and the token_version bump are one atomic UPDATE,
so there is no window in which the old password is gone but old tokens
still verify.

Returns:
  - error: apperr.AuthDenied on wrong current password, validation or storage errors
*/
func (service *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !service.hasher.Verify(currentPassword, user.PasswordHash) {
		service.audit(ctx, "password_change_denied", user.Email, errors.New("identity: current password mismatch"))
		return apperr.AuthDenied(nil)
	}

	newHash, err := service.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := service.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}

	service.log.InfoContext(ctx, "password_changed", slog.String("user_id", userID))
	return nil
}

/*
RevokeAll invalidates every previously issued token for the account by
incrementing its token_version counter. O(1), no blocklist.
*/
func (service *Service) RevokeAll(ctx context.Context, userID string) error {
	if err := service.users.BumpTokenVersion(ctx, userID); err != nil {
		return err
	}
	service.log.InfoContext(ctx, "tokens_revoked", slog.String("user_id", userID))
	return nil
}

// # Administration Flow

// CreateInput holds the data required to enroll a new account.
type CreateInput struct {
	Email    string
	Password string
	Role     sec.Role
}

/*
Create enrolls a new account (admin-actions class; authorization is enforced
by the caller before this method runs).

Returns:
  - *User: Created entity
  - error: apperr.Conflict on duplicate email, validation or storage errors
*/
func (service *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	if !input.Role.Valid() {
		return nil, apperr.ValidationError("Unknown role")
	}

	hash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Email:        strings.ToLower(input.Email),
		PasswordHash: hash,
		Role:         input.Role,
		TokenVersion: 0,
	}

	if err := service.users.Create(ctx, user); err != nil {
		return nil, err
	}

	service.log.InfoContext(ctx, "user_created",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Get returns a single account by ID.
func (service *Service) Get(ctx context.Context, id string) (*User, error) {
	return service.users.FindByID(ctx, id)
}

// List returns a page of accounts plus the total count.
func (service *Service) List(ctx context.Context, params pagination.Params) ([]User, int, error) {
	return service.users.List(ctx, params)
}

/*
UpdateRole changes an account's role and revokes outstanding tokens, since
their embedded scopes no longer reflect the granted permissions.
*/
func (service *Service) UpdateRole(ctx context.Context, id string, role sec.Role) error {
	if !role.Valid() {
		return apperr.ValidationError("Unknown role")
	}
	if err := service.users.UpdateRole(ctx, id, string(role)); err != nil {
		return err
	}
	// Old tokens still carry the previous role's scopes. Force re-issue.
	return service.users.BumpTokenVersion(ctx, id)
}

/*
SetDisabled flips the disabled flag. Disabling also revokes outstanding
tokens so the account is locked out immediately, not at next expiry.
*/
func (service *Service) SetDisabled(ctx context.Context, id string, disabled bool) error {
	if err := service.users.SetDisabled(ctx, id, disabled); err != nil {
		return err
	}
	if disabled {
		return service.users.BumpTokenVersion(ctx, id)
	}
	return nil
}

// Delete permanently removes an account.
func (service *Service) Delete(ctx context.Context, id string) error {
	return service.users.Delete(ctx, id)
}

/*
EnsureAdmin creates the bootstrap admin account at startup if no account
with the given email exists. Idempotent across restarts and instances.

An empty password disables bootstrap entirely — production deployments
provision admins explicitly.
*/
func (service *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if password == "" {
		return nil
	}

	if _, err := service.users.FindByEmail(ctx, email); err == nil {
		return nil
	}

	_, err := service.Create(ctx, CreateInput{
		Email:    email,
		Password: password,
		Role:     sec.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("identity: admin bootstrap failed: %w", err)
	}

	service.log.InfoContext(ctx, "admin_bootstrapped", slog.String("email", email))
	return nil
}

// audit writes an identity denial with its internal cause. The cause never
// reaches the client.
func (service *Service) audit(ctx context.Context, event, email string, cause error) {
	service.log.WarnContext(ctx, event,
		slog.String("email", email),
		slog.Any("cause", cause),
	)
}
