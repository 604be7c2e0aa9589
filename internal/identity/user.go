// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

/*
Package identity implements the user account and session management layer.

It defines the core domain entity (User) and the logic for authentication,
token issuance, global revocation, and administrative account lifecycle.

# Architecture

This layer is the "Truth" of the system. The entity defined here has no
transport dependencies and encapsulates all business rules related to
identity: who exists, what role they hold, and which issued tokens are
still acceptable.
*/
package identity

import (
	"time"

	"github.com/corvidlabs/corvid/internal/platform/sec"
)

// # Domain Entities

// User represents an authenticated principal of the Corvid platform.
//
// TokenVersion is the global revocation counter: every issued token embeds
// the value current at issuance, and verification rejects any token whose
// embedded value no longer matches. It lives in the database — not process
// memory — so it survives restarts and is visible to every instance.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.Role  `json:"role"`
	TokenVersion int       `json:"-"` // Internal revocation state, never served.
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the identity domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldRole            = "role"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
)
