// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/corvid/internal/platform/sec"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testTokenService(t *testing.T, ttl time.Duration) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testSecret, "v1", "corvid.api", ttl)
	require.NoError(t, err)
	return service
}

/*
TestTokenService_Construction verifies the configuration guards: short
secrets, empty key ids, and non-positive TTLs are rejected.
*/
func TestTokenService_Construction(t *testing.T) {
	_, err := sec.NewTokenService("too-short", "v1", "corvid.api", time.Minute)
	assert.Error(t, err)

	_, err = sec.NewTokenService(testSecret, "", "corvid.api", time.Minute)
	assert.Error(t, err)

	_, err = sec.NewTokenService(testSecret, "v1", "corvid.api", 0)
	assert.Error(t, err)
}

/*
TestTokenService_IssueVerify verifies the issue/verify roundtrip preserves
all embedded claims.
*/
func TestTokenService_IssueVerify(t *testing.T) {
	service := testTokenService(t, time.Minute)

	raw, issued, err := service.Issue("user-1", sec.RoleStaff, 3)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.Equal(t, 3, issued.TokenVersion)

	claims, err := service.Verify(raw)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, sec.RoleStaff, claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, "corvid.api", claims.Issuer)
	assert.ElementsMatch(t, sec.RoleStaff.Scopes(), claims.Scopes)
}

/*
TestTokenService_Expiry verifies that an expired token is rejected with
the dedicated expiry error.
*/
func TestTokenService_Expiry(t *testing.T) {
	service := testTokenService(t, time.Millisecond)

	raw, _, err := service.Issue("user-1", sec.RoleViewer, 0)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = service.Verify(raw)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
}

/*
TestTokenService_Tampering verifies that a modified payload fails
signature verification.
*/
func TestTokenService_Tampering(t *testing.T) {
	service := testTokenService(t, time.Minute)

	raw, _, err := service.Issue("user-1", sec.RoleViewer, 0)
	require.NoError(t, err)

	// Flip a character inside the payload segment
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = service.Verify(tampered)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_WrongKey verifies that tokens signed under a different
secret are rejected.
*/
func TestTokenService_WrongKey(t *testing.T) {
	issuer := testTokenService(t, time.Minute)

	other, err := sec.NewTokenService("ffffffffffffffffffffffffffffffff", "v1", "corvid.api", time.Minute)
	require.NoError(t, err)

	raw, _, err := other.Issue("user-1", sec.RoleAdmin, 0)
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_Garbage verifies rejection of values that are not tokens
at all.
*/
func TestTokenService_Garbage(t *testing.T) {
	service := testTokenService(t, time.Minute)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := service.Verify(raw)
		assert.Error(t, err)
	}
}

/*
TestRole_Scopes verifies the pure role-to-scopes mapping.
*/
func TestRole_Scopes(t *testing.T) {
	assert.Contains(t, sec.RoleAdmin.Scopes(), string(sec.ScopeAdmin))
	assert.Contains(t, sec.RoleStaff.Scopes(), string(sec.ScopeReadAny))
	assert.NotContains(t, sec.RoleStaff.Scopes(), string(sec.ScopeWriteAny))
	assert.Equal(t, []string{string(sec.ScopeReadOwn)}, sec.RoleViewer.Scopes())
	assert.Nil(t, sec.Role("ghost").Scopes())
}
