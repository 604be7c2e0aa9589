// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package identity_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/corvid/internal/identity"
	"github.com/corvidlabs/corvid/internal/platform/apperr"
	"github.com/corvidlabs/corvid/internal/platform/sec"
	"github.com/corvidlabs/corvid/pkg/pagination"
)

// # Fakes

type fakeUserStore struct {
	byID map[string]*identity.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[string]*identity.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, user *identity.User) error {
	for _, existing := range s.byID {
		if existing.Email == strings.ToLower(user.Email) {
			return apperr.Conflict("User already exists")
		}
	}
	copied := *user
	copied.Email = strings.ToLower(copied.Email)
	s.byID[copied.ID] = &copied
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (*identity.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, user := range s.byID {
		if user.Email == strings.ToLower(email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (s *fakeUserStore) List(_ context.Context, _ pagination.Params) ([]identity.User, int, error) {
	var users []identity.User
	for _, user := range s.byID {
		users = append(users, *user)
	}
	return users, len(users), nil
}

func (s *fakeUserStore) UpdateRole(_ context.Context, id string, role string) error {
	user, ok := s.byID[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Role = sec.Role(role)
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id string, newHash string) error {
	user, ok := s.byID[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = newHash
	user.TokenVersion++
	return nil
}

func (s *fakeUserStore) BumpTokenVersion(_ context.Context, id string) error {
	user, ok := s.byID[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.TokenVersion++
	return nil
}

func (s *fakeUserStore) SetDisabled(_ context.Context, id string, disabled bool) error {
	user, ok := s.byID[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Disabled = disabled
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return apperr.NotFound("User")
	}
	delete(s.byID, id)
	return nil
}

// # Harness

type harness struct {
	service *identity.Service
	users   *fakeUserStore
	tokens  *sec.TokenService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	users := newFakeUserStore()

	hasher := sec.NewHasherWithParams(&argon2id.Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}, 0)

	tokens, err := sec.NewTokenService("0123456789abcdef0123456789abcdef", "v1", "corvid.api", 30*time.Minute)
	require.NoError(t, err)

	service := identity.NewService(users, hasher, tokens, slog.Default())
	return &harness{service: service, users: users, tokens: tokens}
}

func (h *harness) enroll(t *testing.T, email, password string, role sec.Role) *identity.User {
	t.Helper()
	user, err := h.service.Create(context.Background(), identity.CreateInput{
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

// verify runs the full verification path: signature, then durable state.
func (h *harness) verify(token string) error {
	claims, err := h.tokens.Verify(token)
	if err != nil {
		return err
	}
	return h.service.CheckSession(context.Background(), claims)
}

// # Login

/*
TestLogin_Succeeds verifies the happy path: a valid credential pair yields
a token that passes full verification.
*/
func TestLogin_Succeeds(t *testing.T) {
	h := newHarness(t)
	h.enroll(t, "kai@corvid.app", "s3cret-passw0rd", sec.RoleStaff)

	result, err := h.service.Login(context.Background(), "kai@corvid.app", "s3cret-passw0rd")
	require.NoError(t, err)

	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, int64(1800), result.ExpiresIn)
	assert.NoError(t, h.verify(result.AccessToken))
}

/*
TestLogin_CaseInsensitiveEmail verifies the email matches regardless of
casing at enrollment or login.
*/
func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	h := newHarness(t)
	h.enroll(t, "Kai@Corvid.App", "s3cret-passw0rd", sec.RoleStaff)

	_, err := h.service.Login(context.Background(), "KAI@CORVID.APP", "s3cret-passw0rd")
	assert.NoError(t, err)
}

/*
TestLogin_GenericDenial verifies that unknown emails, wrong passwords,
and disabled accounts all collapse into the same 401.
*/
func TestLogin_GenericDenial(t *testing.T) {
	h := newHarness(t)
	user := h.enroll(t, "kai@corvid.app", "s3cret-passw0rd", sec.RoleStaff)
	require.NoError(t, h.users.SetDisabled(context.Background(), user.ID, true))
	h.enroll(t, "active@corvid.app", "s3cret-passw0rd", sec.RoleStaff)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown_email", "nobody@corvid.app", "s3cret-passw0rd"},
		{"wrong_password", "active@corvid.app", "wrong"},
		{"disabled_account", "kai@corvid.app", "s3cret-passw0rd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.service.Login(context.Background(), tt.email, tt.password)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "UNAUTHORIZED", ae.Code)
			assert.Equal(t, 401, ae.HTTPStatus)
		})
	}
}

// # Sessions & Revocation

/*
TestRevokeAll_InvalidatesOutstandingTokens verifies that revocation kills
previously issued tokens while a token issued afterwards verifies.
*/
func TestRevokeAll_InvalidatesOutstandingTokens(t *testing.T) {
	h := newHarness(t)
	user := h.enroll(t, "kai@corvid.app", "s3cret-passw0rd", sec.RoleStaff)

	before, err := h.service.Login(context.Background(), "kai@corvid.app", "s3cret-passw0rd")
	require.NoError(t, err)
	require.NoError(t, h.verify(before.AccessToken))

	require.NoError(t, h.service.RevokeAll(context.Background(), user.ID))

	// The old token still has a valid signature but a stale version.
	assert.ErrorIs(t, h.verify(before.AccessToken), identity.ErrSessionStaleVersion)

	after, err := h.service.Login(context.Background(), "kai@corvid.app", "s3cret-passw0rd")
	require.NoError(t, err)
	assert.NoError(t, h.verify(after.AccessToken))
}

/*
TestRevokeAll_ScopedToOneIdentity verifies that revoking one account does
not touch another's sessions.
*/
func TestRevokeAll_ScopedToOneIdentity(t *testing.T) {
	h := newHarness(t)
	first := h.enroll(t, "first@corvid.app", "s3cret-passw0rd", sec.RoleStaff)
	h.enroll(t, "second@corvid.app", "s3cret-passw0rd", sec.RoleStaff)

	secondLogin, err := h.service.Login(context.Background(), "second@corvid.app", "s3cret-passw0rd")
	require.NoError(t, err)

	require.NoError(t, h.service.RevokeAll(context.Background(), first.ID))

	assert.NoError(t, h.verify(secondLogin.AccessToken))
}

/*
TestCheckSession_Rejections verifies the durable freshness checks that run
after signature verification.
*/
func TestCheckSession_Rejections(t *testing.T) {
	h := newHarness(t)
	user := h.enroll(t, "kai@corvid.app", "s3cret-passw0rd", sec.RoleStaff)

	login, err := h.service.Login(context.Background(), "kai@corvid.app", "s3cret-passw0rd")
	require.NoError(t, err)
	claims, err := h.tokens.Verify(login.AccessToken)
	require.NoError(t, err)

	// Disabled account
	require.NoError(t, h.users.SetDisabled(context.Background(), user.ID, true))
	assert.ErrorIs(t, h.service.CheckSession(context.Background(), claims), identity.ErrSessionDisabled)
	require.NoError(t, h.users.SetDisabled(context.Background(), user.ID, false))

	// Deleted account
	require.NoError(t, h.users.Delete(context.Background(), user.ID))
	assert.ErrorIs(t, h.service.CheckSession(context.Background(), claims), identity.ErrSessionUnknownSubject)
}

// # Password Changes

/*
TestChangePassword verifies the rotation flow: wrong current password is
denied, a successful change revokes old tokens, and the new credential
logs in.
*/
func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	user := h.enroll(t, "kai@corvid.app", "old-passw0rd", sec.RoleStaff)

	login, err := h.service.Login(context.Background(), "kai@corvid.app", "old-passw0rd")
	require.NoError(t, err)

	// Wrong current password
	err = h.service.ChangePassword(context.Background(), user.ID, "not-the-password", "new-passw0rd")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	// Successful rotation
	require.NoError(t, h.service.ChangePassword(context.Background(), user.ID, "old-passw0rd", "new-passw0rd"))

	// Old token is revoked, old password no longer works, new one does.
	assert.ErrorIs(t, h.verify(login.AccessToken), identity.ErrSessionStaleVersion)

	_, err = h.service.Login(context.Background(), "kai@corvid.app", "old-passw0rd")
	assert.Error(t, err)

	_, err = h.service.Login(context.Background(), "kai@corvid.app", "new-passw0rd")
	assert.NoError(t, err)
}

// # Administration

/*
TestCreate_RejectsDuplicatesAndBadRoles verifies enrollment guards.
*/
func TestCreate_RejectsDuplicatesAndBadRoles(t *testing.T) {
	h := newHarness(t)
	h.enroll(t, "kai@corvid.app", "s3cret-passw0rd", sec.RoleStaff)

	_, err := h.service.Create(context.Background(), identity.CreateInput{
		Email:    "KAI@corvid.app",
		Password: "another-passw0rd",
		Role:     sec.RoleViewer,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	_, err = h.service.Create(context.Background(), identity.CreateInput{
		Email:    "new@corvid.app",
		Password: "another-passw0rd",
		Role:     sec.Role("superuser"),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

/*
TestUpdateRole_RevokesTokens verifies a role change forces re-issue, since
outstanding tokens carry the previous role's scopes.
*/
func TestUpdateRole_RevokesTokens(t *testing.T) {
	h := newHarness(t)
	user := h.enroll(t, "kai@corvid.app", "s3cret-passw0rd", sec.RoleViewer)

	login, err := h.service.Login(context.Background(), "kai@corvid.app", "s3cret-passw0rd")
	require.NoError(t, err)

	require.NoError(t, h.service.UpdateRole(context.Background(), user.ID, sec.RoleStaff))

	assert.ErrorIs(t, h.verify(login.AccessToken), identity.ErrSessionStaleVersion)

	fresh, err := h.service.Login(context.Background(), "kai@corvid.app", "s3cret-passw0rd")
	require.NoError(t, err)
	claims, err := h.tokens.Verify(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleStaff, claims.Role)
}

/*
TestEnsureAdmin verifies the bootstrap: created once, idempotent on
rerun, and skipped entirely without a configured password.
*/
func TestEnsureAdmin(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.service.EnsureAdmin(context.Background(), "admin@corvid.local", "b00tstrap-pass"))
	require.NoError(t, h.service.EnsureAdmin(context.Background(), "admin@corvid.local", "b00tstrap-pass"))

	_, total, err := h.service.List(context.Background(), pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	admin, err := h.users.FindByEmail(context.Background(), "admin@corvid.local")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, admin.Role)

	// No password, no bootstrap.
	other := newHarness(t)
	require.NoError(t, other.service.EnsureAdmin(context.Background(), "admin@corvid.local", ""))
	_, total, err = other.service.List(context.Background(), pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
