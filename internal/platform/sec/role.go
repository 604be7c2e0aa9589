// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package sec

// # User Roles

// Role represents the authorization level granted to an account.
//
// The set is closed on purpose: adding a role means touching this file,
// the scope table below, and the authz rule table — all exhaustively
// reviewable in one change.
type Role string

const (
	// Unrestricted system access, including user management
	RoleAdmin Role = "admin"

	// Day-to-day CRM operator: reads everything, writes what they own
	RoleStaff Role = "staff"

	// Read-only access to records the account owns
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
// Unknown roles carry no permissions anywhere in the system.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// # Scopes

// Scope is a permission tag derived from a role and embedded into every
// issued token, so verification never needs a database round-trip to
// reconstruct what the bearer may do.
type Scope string

const (
	ScopeReadOwn  Scope = "read:own"
	ScopeWriteOwn Scope = "write:own"
	ScopeReadAny  Scope = "read:any"
	ScopeWriteAny Scope = "write:any"
	ScopeAdmin    Scope = "admin"
)

// Scopes computes the permission tags for a role.
//
// This is a pure function of the role — the Permission Grant is never
// stored, only recomputed at token issuance.
func (r Role) Scopes() []string {
	switch r {
	case RoleAdmin:
		return []string{
			string(ScopeReadOwn), string(ScopeWriteOwn),
			string(ScopeReadAny), string(ScopeWriteAny),
			string(ScopeAdmin),
		}
	case RoleStaff:
		return []string{
			string(ScopeReadOwn), string(ScopeWriteOwn),
			string(ScopeReadAny),
		}
	case RoleViewer:
		return []string{string(ScopeReadOwn)}
	default:
		// Unknown role: no scopes, fail closed.
		return nil
	}
}
