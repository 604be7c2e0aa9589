// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package sec_test

import (
	"strings"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/corvid/internal/platform/sec"
)

// Cheap parameters keep the suite fast; production wiring uses the
// library defaults.
func testHasher(maxBytes int) *sec.Hasher {
	params := &argon2id.Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	return sec.NewHasherWithParams(params, maxBytes)
}

/*
TestHasher_Roundtrip verifies that a hashed password verifies against its
own digest and nothing else.
*/
func TestHasher_Roundtrip(t *testing.T) {
	hasher := testHasher(0)

	digest, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$argon2id$"))

	assert.True(t, hasher.Verify("correct horse battery staple", digest))
	assert.False(t, hasher.Verify("correct horse battery stable", digest))
	assert.False(t, hasher.Verify("", digest))
}

/*
TestHasher_SaltUniqueness verifies that hashing the same password twice
yields two different digests.
*/
func TestHasher_SaltUniqueness(t *testing.T) {
	hasher := testHasher(0)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("same-password", first))
	assert.True(t, hasher.Verify("same-password", second))
}

/*
TestHasher_InputBounds verifies rejection of empty and over-length
passwords before any hashing cost is paid.
*/
func TestHasher_InputBounds(t *testing.T) {
	hasher := testHasher(16)

	_, err := hasher.Hash("")
	assert.Error(t, err)

	_, err = hasher.Hash(strings.Repeat("a", 17))
	assert.Error(t, err)

	// Exactly at the bound is fine
	_, err = hasher.Hash(strings.Repeat("a", 16))
	assert.NoError(t, err)
}

/*
TestHasher_MalformedDigest verifies the fail-closed behavior: garbage
digests never verify and never panic.
*/
func TestHasher_MalformedDigest(t *testing.T) {
	hasher := testHasher(0)

	tests := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"not_a_digest", "plaintext"},
		{"truncated", "$argon2id$v=19$m=8192"},
		{"wrong_algorithm", "$bcrypt$2a$10$abcdefghijklmnopqrstuv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, hasher.Verify("anything", tt.digest))
		})
	}
}
