// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package sec

import (
	"github.com/alexedwards/argon2id"

	"github.com/corvidlabs/corvid/internal/platform/apperr"
)

// # Password Hashing

// DefaultMaxPasswordBytes bounds the plaintext accepted by [Hasher.Hash].
// Argon2id cost grows with input length; an unbounded password is a cheap
// way to burn server CPU and memory.
const DefaultMaxPasswordBytes = 256

// Hasher is the credential manager: it hashes and verifies passwords and
// never exposes or logs plaintext.
//
// # Concurrency
//
// Hasher is immutable after construction and safe for concurrent use.
type Hasher struct {
	params   *argon2id.Params
	maxBytes int
}

// NewHasher constructs a Hasher with the library's recommended Argon2id
// parameters. maxPasswordBytes <= 0 falls back to [DefaultMaxPasswordBytes].
func NewHasher(maxPasswordBytes int) *Hasher {
	if maxPasswordBytes <= 0 {
		maxPasswordBytes = DefaultMaxPasswordBytes
	}
	return &Hasher{params: argon2id.DefaultParams, maxBytes: maxPasswordBytes}
}

// NewHasherWithParams constructs a Hasher with explicit Argon2id parameters.
// Used by configuration-driven wiring and by tests that need cheap params.
func NewHasherWithParams(params *argon2id.Params, maxPasswordBytes int) *Hasher {
	if maxPasswordBytes <= 0 {
		maxPasswordBytes = DefaultMaxPasswordBytes
	}
	return &Hasher{params: params, maxBytes: maxPasswordBytes}
}

// Hash derives a salted Argon2id digest in the standard encoded form
// ($argon2id$v=19$m=...). Every call draws a fresh random salt, so hashing
// the same password twice produces two different digests.
//
// Empty and over-length passwords are rejected with a validation error
// before any hashing cost is paid.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", apperr.ValidationError("Password must not be empty")
	}
	if len(plain) > h.maxBytes {
		return "", apperr.ValidationError("Password exceeds maximum length")
	}

	encoded, err := argon2id.CreateHash(plain, h.params)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return encoded, nil
}

// Verify reports whether plain matches the encoded digest.
//
// # Fail Closed
//
// A malformed or truncated digest yields false, never an error or a panic.
// The underlying comparison is constant-time, so a wrong password and an
// unknown digest format are indistinguishable by timing.
func (h *Hasher) Verify(plain, encoded string) bool {
	match, err := argon2id.ComparePasswordAndHash(plain, encoded)
	if err != nil {
		return false
	}
	return match
}
